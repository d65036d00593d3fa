package models

import (
	"time"
)

// Participant is a registered individual taking part in the exercise.
// Created once by the enrollment flow; only the bulk clear removes it.
type Participant struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ParticipantID string    `gorm:"column:participant_id;uniqueIndex;not null" json:"studentID"` // public identifier, "anonymous_<id>" when not supplied
	FullName      string    `gorm:"not null;default:''" json:"fullName"`
	College       string    `gorm:"not null;default:''" json:"college"`
	Course        string    `gorm:"not null;default:''" json:"course"`
	Address       string    `gorm:"not null;default:''" json:"address"`
	Mobile        string    `gorm:"not null;default:''" json:"mobile"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"` // "noreply_<id>@example.com" when not supplied
	Year          string    `gorm:"not null;default:''" json:"year"`
	CGPA          string    `gorm:"column:cgpa;not null;default:''" json:"cgpa"`
	Opportunity   string    `gorm:"not null;default:''" json:"opportunity"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Participant) TableName() string {
	return "participants"
}
