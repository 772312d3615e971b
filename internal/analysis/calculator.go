package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

const trendBand = 5.0

// ScoreStore keeps the last overall score per project. Implementations decide
// durability; concurrent writers for one project resolve as last writer wins.
type ScoreStore interface {
	Get(ctx context.Context, projectID string) (float64, bool, error)
	Put(ctx context.Context, projectID string, score float64) error
}

// Calculator scores project snapshots with a fixed configuration. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	cfg config.ScoringConfig
	now func() time.Time
}

// Option customizes a Calculator
type Option func(*Calculator)

// WithClock overrides the time source used for aging, deadlines and windows
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCalculator validates cfg and returns a Calculator. An invalid
// configuration is rejected here so that no request ever sees it.
func NewCalculator(cfg config.ScoringConfig, opts ...Option) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Calculator{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the scoring configuration
func (c *Calculator) Config() config.ScoringConfig {
	return c.cfg
}

// Calculate scores every dimension of the project and aggregates them.
// previous is the last recorded overall score for the project, if any.
func (c *Calculator) Calculate(project *types.Project, previous *float64) HealthScore {
	now := c.now()

	delivery := ScoreDelivery(project.Tasks, c.cfg, now)
	workload := ScoreWorkload(project.TeamMembers, project.Tasks, c.cfg)
	dimensions := []DimensionScore{
		delivery,
		workload,
		ScoreCommunication(project.Communications, c.cfg, now),
		ScoreRiskSignals(project.Tasks, c.cfg),
		ScoreMomentum(project.Tasks, previous, delivery, workload, c.cfg, now),
	}

	overall := 0.0
	for _, d := range dimensions {
		overall += d.Score * d.Weight
	}

	h := HealthScore{
		OverallScore: roundTo(clampScore(overall), 1),
		Status:       c.status(overall),
		Dimensions:   dimensions,
		CalculatedAt: now,
	}
	if previous != nil {
		p := *previous
		h.PreviousScore = &p
		h.Trend = trendOf(overall, p)
	}
	return h
}

func (c *Calculator) status(overall float64) HealthStatus {
	switch {
	case overall >= c.cfg.HealthThresholds.Healthy:
		return StatusHealthy
	case overall >= c.cfg.HealthThresholds.Watch:
		return StatusWatch
	default:
		return StatusAtRisk
	}
}

func trendOf(overall, previous float64) Trend {
	switch {
	case overall > previous+trendBand:
		return TrendImproving
	case overall < previous-trendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// DetectRisks runs the risk rules against a computed health score
func (c *Calculator) DetectRisks(h HealthScore) []Risk {
	return DetectRisks(h, c.cfg.AgingTaskThresholdDays)
}

// Assessment is the output of one scoring request
type Assessment struct {
	Health HealthScore `json:"health_score"`
	Risks  []Risk      `json:"risks"`
}

// Assess reads the previous score from store, scores the project, records the
// new overall score and detects risks. Concurrent calls for the same project
// are not ordered; wrap the call in a per-project lock when that matters.
func (c *Calculator) Assess(ctx context.Context, project *types.Project, store ScoreStore) (Assessment, error) {
	var previous *float64
	if store != nil {
		score, ok, err := store.Get(ctx, project.ID)
		if err != nil {
			return Assessment{}, fmt.Errorf("failed to read previous score for %s: %w", project.ID, err)
		}
		if ok {
			previous = &score
		}
	}

	health := c.Calculate(project, previous)

	if store != nil {
		if err := store.Put(ctx, project.ID, health.OverallScore); err != nil {
			return Assessment{}, fmt.Errorf("failed to record score for %s: %w", project.ID, err)
		}
	}

	return Assessment{Health: health, Risks: c.DetectRisks(health)}, nil
}
