package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"phish-scoreboard/models"
)

// Profile is the set of fields a participant submits at registration.
type Profile struct {
	FullName    string
	StudentID   string
	College     string
	Course      string
	Address     string
	Mobile      string
	Email       string
	Year        string
	CGPA        string
	Opportunity string
}

// FieldStats describes how complete a submitted profile was.
type FieldStats struct {
	EmptyFields int `json:"empty_fields"`
	TotalFields int `json:"total_fields"`
}

func (p Profile) values() []string {
	return []string{
		p.FullName, p.StudentID, p.College, p.Course, p.Address,
		p.Mobile, p.Email, p.Year, p.CGPA, p.Opportunity,
	}
}

// NormalizeField trims s and converts it to Unicode NFC so that visually
// identical identifiers compare equal. Every lookup by participant ID must
// go through it, since registration stores the normalized form.
func NormalizeField(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Normalized applies NormalizeField to every field.
func (p Profile) Normalized() Profile {
	clean := NormalizeField
	return Profile{
		FullName:    clean(p.FullName),
		StudentID:   clean(p.StudentID),
		College:     clean(p.College),
		Course:      clean(p.Course),
		Address:     clean(p.Address),
		Mobile:      clean(p.Mobile),
		Email:       clean(p.Email),
		Year:        clean(p.Year),
		CGPA:        clean(p.CGPA),
		Opportunity: clean(p.Opportunity),
	}
}

// Stats counts empty fields of the profile as submitted.
func (p Profile) Stats() FieldStats {
	values := p.values()
	stats := FieldStats{TotalFields: len(values)}
	for _, v := range values {
		if v == "" {
			stats.EmptyFields++
		}
	}
	return stats
}

// ParticipantService is the participant registry: create, list and the
// existence check the ledger uses before appending.
type ParticipantService struct {
	DB *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{DB: db}
}

// Register inserts a participant. Missing identifiers are derived from the
// surrogate key, which only exists after the insert; the row is therefore
// created with unique placeholders and rewritten in the same transaction.
func (s *ParticipantService) Register(ctx context.Context, profile Profile) (*models.Participant, error) {
	profile = profile.Normalized()

	var created models.Participant
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkIdentityFree(tx, profile.StudentID, profile.Email); err != nil {
			return err
		}

		placeholder := "pending_" + uuid.NewString()
		p := models.Participant{
			ParticipantID: orDefault(profile.StudentID, placeholder),
			FullName:      profile.FullName,
			College:       profile.College,
			Course:        profile.Course,
			Address:       profile.Address,
			Mobile:        profile.Mobile,
			Email:         orDefault(profile.Email, placeholder+"@placeholder.invalid"),
			Year:          profile.Year,
			CGPA:          profile.CGPA,
			Opportunity:   profile.Opportunity,
		}
		if err := tx.Create(&p).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: this email or student ID already exists", ErrConflict)
			}
			return fmt.Errorf("%w: insert participant: %w", ErrStore, err)
		}

		fallback := map[string]interface{}{}
		if profile.StudentID == "" {
			p.ParticipantID = fmt.Sprintf("anonymous_%d", p.ID)
			fallback["participant_id"] = p.ParticipantID
		}
		if profile.Email == "" {
			p.Email = fmt.Sprintf("noreply_%d@example.com", p.ID)
			fallback["email"] = p.Email
		}
		if len(fallback) > 0 {
			if err := tx.Model(&models.Participant{}).Where("id = ?", p.ID).Updates(fallback).Error; err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: generated identifier already taken", ErrConflict)
				}
				return fmt.Errorf("%w: assign fallback identity: %w", ErrStore, err)
			}
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func checkIdentityFree(tx *gorm.DB, participantID, email string) error {
	if participantID == "" && email == "" {
		return nil
	}
	q := tx.Model(&models.Participant{})
	switch {
	case participantID != "" && email != "":
		q = q.Where("participant_id = ? OR email = ?", participantID, email)
	case participantID != "":
		q = q.Where("participant_id = ?", participantID)
	default:
		q = q.Where("email = ?", email)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("%w: check participant identity: %w", ErrStore, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: this email or student ID already exists", ErrConflict)
	}
	return nil
}

// Exists reports whether a participant with participantID is registered.
func (s *ParticipantService) Exists(ctx context.Context, participantID string) (bool, error) {
	var p models.Participant
	err := s.DB.WithContext(ctx).
		Select("id").
		Where("participant_id = ?", NormalizeField(participantID)).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lookup participant: %w", ErrStore, err)
	}
	return true, nil
}

// List returns every participant, newest registration first.
func (s *ParticipantService) List(ctx context.Context) ([]models.Participant, error) {
	participants := make([]models.Participant, 0)
	if err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("%w: list participants: %w", ErrStore, err)
	}
	return participants, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
