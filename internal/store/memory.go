package store

import (
	"context"
	"sync"
	"time"
)

const memoryHistoryCap = 100

// MemoryStore is a process-local HistoryStore
type MemoryStore struct {
	mu      sync.RWMutex
	history map[string][]ScoreRecord
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history: make(map[string][]ScoreRecord),
		now:     time.Now,
	}
}

// Get returns the most recent score for a project
func (m *MemoryStore) Get(_ context.Context, projectID string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.history[projectID]
	if len(records) == 0 {
		return 0, false, nil
	}
	return records[len(records)-1].Score, true, nil
}

// Put records a new score for a project
func (m *MemoryStore) Put(_ context.Context, projectID string, score float64) error {
	if err := validScore(score); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records := append(m.history[projectID], ScoreRecord{
		ProjectID:  projectID,
		Score:      score,
		RecordedAt: m.now().UTC(),
	})
	if len(records) > memoryHistoryCap {
		records = records[len(records)-memoryHistoryCap:]
	}
	m.history[projectID] = records
	return nil
}

// History returns up to limit records, newest first
func (m *MemoryStore) History(_ context.Context, projectID string, limit int) ([]ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.history[projectID]
	n := min(historyLimit(limit), len(records))
	out := make([]ScoreRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }
