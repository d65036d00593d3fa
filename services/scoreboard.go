package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
)

// Standing is one participant's aggregate over the ledger.
type Standing struct {
	ID            uint      `gorm:"column:id" json:"id"`
	ParticipantID string    `gorm:"column:participant_id" json:"studentID"`
	FullName      string    `gorm:"column:full_name" json:"fullName"`
	Email         string    `gorm:"column:email" json:"email"`
	Score         int       `gorm:"column:score" json:"score"`
	ActionsCount  int64     `gorm:"column:actions_count" json:"actions_count"`
	RegisteredAt  time.Time `gorm:"column:registered_at" json:"-"`
}

// LeaderboardEntry is the reduced row served by the at-risk leaderboard.
type LeaderboardEntry struct {
	FullName      string `json:"fullName"`
	ParticipantID string `json:"studentID"`
	Email         string `json:"email"`
	Score         int    `json:"score"`
}

// Every participant appears, including those without actions (score 0).
const standingsQuery = `
SELECT p.id, p.participant_id, p.full_name, p.email, p.created_at AS registered_at,
       COALESCE(SUM(a.points), 0) AS score,
       COUNT(a.id) AS actions_count
FROM participants p
LEFT JOIN action_records a ON a.participant_id = p.participant_id
GROUP BY p.id, p.participant_id, p.full_name, p.email, p.created_at`

// ScoreboardService derives scores from the ledger on every call; nothing
// is cached.
type ScoreboardService struct {
	DB *gorm.DB
}

func NewScoreboardService(db *gorm.DB) *ScoreboardService {
	return &ScoreboardService{DB: db}
}

func (s *ScoreboardService) standings(ctx context.Context) ([]Standing, error) {
	rows := make([]Standing, 0)
	if err := s.DB.WithContext(ctx).Raw(standingsQuery).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: aggregate scores: %w", ErrStore, err)
	}
	return rows, nil
}

// Scores returns the full scoreboard, best score first.
func (s *ScoreboardService) Scores(ctx context.Context) ([]Standing, error) {
	rows, err := s.standings(ctx)
	if err != nil {
		return nil, err
	}
	RankScoreboard(rows)
	return rows, nil
}

// Leaderboard returns the limit most at-risk participants, lowest score first.
func (s *ScoreboardService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return []LeaderboardEntry{}, nil
	}
	rows, err := s.standings(ctx)
	if err != nil {
		return nil, err
	}
	ranked := RankLeaderboard(rows, limit)

	out := make([]LeaderboardEntry, len(ranked))
	for i, r := range ranked {
		out[i] = LeaderboardEntry{
			FullName:      r.FullName,
			ParticipantID: r.ParticipantID,
			Email:         r.Email,
			Score:         r.Score,
		}
	}
	return out, nil
}

// RankScoreboard sorts in place: score DESC, actions DESC, earliest
// registrant first.
func RankScoreboard(rows []Standing) {
	slices.SortStableFunc(rows, func(a, b Standing) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.ActionsCount, a.ActionsCount); c != 0 {
			return c
		}
		return compareRegistration(a, b)
	})
}

// RankLeaderboard sorts in place by score ASC (earliest registrant first on
// ties) and returns at most limit rows.
func RankLeaderboard(rows []Standing, limit int) []Standing {
	limit = max(limit, 0)
	slices.SortStableFunc(rows, func(a, b Standing) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return compareRegistration(a, b)
	})
	return rows[:min(limit, len(rows))]
}

func compareRegistration(a, b Standing) int {
	if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
