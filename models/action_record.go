package models

import (
	"time"
)

// ActionRecord is one immutable ledger row. Points are resolved from the
// point policy at insertion and never recomputed.
type ActionRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ParticipantID string    `gorm:"column:participant_id;index;not null" json:"studentID"`
	ActionType    string    `gorm:"size:128;not null" json:"action_type"`
	Points        int       `gorm:"not null" json:"points"`
	Metadata      RawJSON   `gorm:"column:meta;type:text" json:"meta"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ActionRecord) TableName() string {
	return "action_records"
}
