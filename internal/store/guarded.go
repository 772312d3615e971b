package store

import (
	"context"
	"io"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/resilience"
)

// GuardedStore routes calls to a remote store through a circuit breaker.
// While the breaker is open every call returns resilience.ErrCircuitOpen.
type GuardedStore struct {
	inner   HistoryStore
	breaker *resilience.CircuitBreaker
}

// Guard wraps inner with breaker
func Guard(inner HistoryStore, breaker *resilience.CircuitBreaker) *GuardedStore {
	return &GuardedStore{inner: inner, breaker: breaker}
}

// Get reads the latest score through the breaker
func (g *GuardedStore) Get(ctx context.Context, projectID string) (score float64, ok bool, err error) {
	err = g.breaker.Call(func() error {
		var callErr error
		score, ok, callErr = g.inner.Get(ctx, projectID)
		return callErr
	})
	return score, ok, err
}

// Put records a score through the breaker. Invalid scores are rejected
// before reaching the backend.
func (g *GuardedStore) Put(ctx context.Context, projectID string, score float64) error {
	if err := validScore(score); err != nil {
		return err
	}
	return g.breaker.Call(func() error {
		return g.inner.Put(ctx, projectID, score)
	})
}

// History reads score history through the breaker
func (g *GuardedStore) History(ctx context.Context, projectID string, limit int) (records []ScoreRecord, err error) {
	err = g.breaker.Call(func() error {
		var callErr error
		records, callErr = g.inner.History(ctx, projectID, limit)
		return callErr
	})
	return records, err
}

// Breaker exposes the breaker for metrics
func (g *GuardedStore) Breaker() *resilience.CircuitBreaker {
	return g.breaker
}

// Close closes the wrapped store when it holds resources
func (g *GuardedStore) Close() error {
	if c, ok := g.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
