// services/scheduler.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// SnapshotStore receives exported CSV snapshots.
type SnapshotStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// SnapshotService periodically archives the participant export.
type SnapshotService struct {
	Exporter *ExportService
	Store    SnapshotStore
	Timeout  time.Duration
	now      func() time.Time
}

func NewSnapshotService(exporter *ExportService, store SnapshotStore) *SnapshotService {
	return &SnapshotService{Exporter: exporter, Store: store, Timeout: time.Minute, now: time.Now}
}

// RunSnapshot uploads one snapshot and returns its location. It returns ""
// without error when there are no participants.
func (s *SnapshotService) RunSnapshot(ctx context.Context) (string, error) {
	data, rows, err := s.Exporter.CSV(ctx)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s-%s.csv", s.Exporter.Slug(), s.now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	location, err := s.Store.PutObject(ctx, key, data, "text/csv")
	if err != nil {
		return "", err
	}
	log.Printf("[SNAPSHOT] ✅ Archived %d participants to %s", rows, location)
	return location, nil
}

// StartSnapshotScheduler runs RunSnapshot every interval until the returned
// scheduler is shut down.
func (s *SnapshotService) StartSnapshotScheduler(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
			defer cancel()
			if _, err := s.RunSnapshot(ctx); err != nil {
				log.Printf("[SNAPSHOT] Failed to archive export: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule snapshot job: %w", err)
	}

	sched.Start()
	log.Printf("✅ Export snapshots scheduled every %s", interval)
	return sched, nil
}
