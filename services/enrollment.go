package services

import (
	"context"
	"log"
	"time"

	"phish-scoreboard/models"
)

// TaskRunner runs best-effort work after the primary operation committed.
type TaskRunner interface {
	Go(name string, timeout time.Duration, task func(ctx context.Context) error)
}

// EnrollmentService registers participants and fires the follow-up side
// effects: the implicit submit_application ledger entry and the webhook.
// Neither side effect can fail or delay the registration.
type EnrollmentService struct {
	Participants *ParticipantService
	Ledger       *Ledger
	Notifier     Notifier
	Tasks        TaskRunner
	TaskTimeout  time.Duration
}

func NewEnrollmentService(participants *ParticipantService, ledger *Ledger, notifier Notifier, tasks TaskRunner, taskTimeout time.Duration) *EnrollmentService {
	return &EnrollmentService{
		Participants: participants,
		Ledger:       ledger,
		Notifier:     notifier,
		Tasks:        tasks,
		TaskTimeout:  taskTimeout,
	}
}

// Register creates the participant and returns as soon as the row is committed.
func (s *EnrollmentService) Register(ctx context.Context, profile Profile) (*models.Participant, error) {
	submitted := profile.Normalized()
	stats := submitted.Stats()

	p, err := s.Participants.Register(ctx, profile)
	if err != nil {
		return nil, err
	}
	log.Printf("[ENROLL] Inserted participant id=%d studentID=%s name=%q", p.ID, p.ParticipantID, p.FullName)

	participantID := p.ParticipantID
	s.Tasks.Go("submit_application:"+participantID, s.TaskTimeout, func(ctx context.Context) error {
		return s.Ledger.AppendRegistrationEvent(ctx, participantID, stats)
	})

	if s.Notifier != nil && s.Notifier.Enabled() {
		// The submitted email, not the generated fallback; it may be empty.
		notice := RegistrationNotice{FullName: p.FullName, Email: submitted.Email}
		s.Tasks.Go("webhook:"+participantID, 0, func(ctx context.Context) error {
			return s.Notifier.NotifyRegistration(ctx, notice)
		})
	}

	return p, nil
}
