package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"phish-scoreboard/models"
)

// RegistryLink is the read-only view of the participant registry the ledger
// needs: whether an identifier belongs to a registered participant.
type RegistryLink interface {
	Exists(ctx context.Context, participantID string) (bool, error)
}

// Ledger is the append-only action log. Rows are never updated or deleted
// individually; ClearAll is the only mutation besides Append.
type Ledger struct {
	DB       *gorm.DB
	policy   PointPolicy
	registry RegistryLink
}

func NewLedger(db *gorm.DB, policy PointPolicy, registry RegistryLink) *Ledger {
	return &Ledger{DB: db, policy: policy, registry: registry}
}

// Policy returns the point policy the ledger resolves points with.
func (l *Ledger) Policy() PointPolicy {
	return l.policy
}

// Append records actionType for participantID. Points are resolved now and
// frozen on the row. A nil metadata is stored as NULL.
func (l *Ledger) Append(ctx context.Context, participantID, actionType string, metadata models.RawJSON) (*models.ActionRecord, error) {
	participantID = NormalizeField(participantID)
	actionType = strings.TrimSpace(actionType)
	if participantID == "" || actionType == "" {
		return nil, fmt.Errorf("%w: studentID and action are required", ErrValidation)
	}

	exists, err := l.registry.Exists(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: student not found", ErrNotFound)
	}

	record := models.ActionRecord{
		ParticipantID: participantID,
		ActionType:    actionType,
		Points:        l.policy.PointsFor(actionType),
		Metadata:      metadata,
	}
	if err := l.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("%w: insert action: %w", ErrStore, err)
	}
	return &record, nil
}

// AppendRegistrationEvent records the implicit submit_application action
// for a freshly registered participant.
func (l *Ledger) AppendRegistrationEvent(ctx context.Context, participantID string, stats FieldStats) error {
	meta := models.MustRawJSON(map[string]interface{}{
		"source":       "auto_on_submit",
		"empty_fields": stats.EmptyFields,
		"total_fields": stats.TotalFields,
	})
	record, err := l.Append(ctx, participantID, ActionSubmitApplication, meta)
	if err != nil {
		return fmt.Errorf("record %s for %s: %w", ActionSubmitApplication, participantID, err)
	}
	log.Printf("[LEDGER] %s recorded for %s (points=%d)", record.ActionType, participantID, record.Points)
	return nil
}

// ClearAll erases every action and every participant in one transaction.
// Readers see either the full data set or nothing.
func (l *Ledger) ClearAll(ctx context.Context) error {
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.ActionRecord{}).Error; err != nil {
			return err
		}
		return all.Delete(&models.Participant{}).Error
	})
	if err != nil {
		return fmt.Errorf("%w: clear all data: %w", ErrStore, err)
	}
	log.Println("[LEDGER] All participant and action data cleared")
	return nil
}

// ListForParticipant returns the participant's actions, newest first.
// A participant without actions, known or not, yields an empty slice.
func (l *Ledger) ListForParticipant(ctx context.Context, participantID string) ([]models.ActionRecord, error) {
	participantID = NormalizeField(participantID)
	if participantID == "" {
		return nil, fmt.Errorf("%w: studentID is required", ErrValidation)
	}

	records := make([]models.ActionRecord, 0)
	if err := l.DB.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: list actions: %w", ErrStore, err)
	}
	return records, nil
}
