// Package store keeps the last overall score per project, and optionally the
// history of recorded scores.
package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/analysis"
)

// DefaultHistoryLimit bounds history reads when the caller passes no limit
const DefaultHistoryLimit = 30

// ErrInvalidScore rejects scores outside [0, 100]
var ErrInvalidScore = errors.New("score must be within [0, 100]")

// ScoreRecord is one recorded overall score
type ScoreRecord struct {
	ProjectID  string    `json:"project_id"`
	Score      float64   `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// HistoryStore is a score store that also keeps past scores, newest first
type HistoryStore interface {
	analysis.ScoreStore
	History(ctx context.Context, projectID string, limit int) ([]ScoreRecord, error)
}

func validScore(score float64) error {
	if math.IsNaN(score) || score < 0 || score > 100 {
		return ErrInvalidScore
	}
	return nil
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

var (
	_ HistoryStore = (*MemoryStore)(nil)
	_ HistoryStore = (*SQLiteStore)(nil)
	_ HistoryStore = (*RedisStore)(nil)
	_ HistoryStore = (*GuardedStore)(nil)
)
