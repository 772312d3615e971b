package analysis

import (
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

const (
	momentumWindow        = 7 * 24 * time.Hour
	partialHealthBand     = 5.0
	partialHealthAdjust   = 20.0
	improvingMomentumRate = 1.2
	stableMomentumRate    = 0.8
)

// ScoreMomentum compares completions in the trailing week with the week
// before it.
//
// When a previous overall score is known, the delivery and workload
// dimensions already computed for this snapshot are combined into a partial
// health value and compared against it. Only two of the five dimensions feed
// that value while the previous score covers all five; the comparison is
// intentionally between those two different scales.
func ScoreMomentum(tasks []types.Task, previous *float64, delivery, workload DimensionScore, cfg config.ScoringConfig, now time.Time) DimensionScore {
	weight := cfg.DimensionWeights.MomentumTrend
	if len(tasks) == 0 {
		return DimensionScore{
			Name:    DimensionMomentum,
			Score:   50,
			Weight:  weight,
			Details: MomentumDetails{Message: "No tasks found"},
		}
	}

	weekAgo := now.Add(-momentumWindow)
	twoWeeksAgo := now.Add(-2 * momentumWindow)

	var d MomentumDetails
	for _, t := range tasks {
		if t.Status != types.StatusDone {
			continue
		}
		switch {
		case !t.UpdatedAt.Before(weekAgo):
			d.RecentCompletions++
		case !t.UpdatedAt.Before(twoWeeksAgo):
			d.PreviousCompletions++
		}
	}

	momentum := momentumRatio(d.RecentCompletions, d.PreviousCompletions)
	d.MomentumRatio = roundTo(momentum, 2)

	var score float64
	switch {
	case momentum > improvingMomentumRate:
		score = 80
	case momentum > stableMomentumRate:
		score = 60
	default:
		score = 30
	}

	if previous != nil {
		partial := delivery.Score*delivery.Weight + workload.Score*workload.Weight
		d.PartialHealth = &partial
		switch {
		case partial > *previous+partialHealthBand:
			score = min(100, score+partialHealthAdjust)
		case partial < *previous-partialHealthBand:
			score = max(0, score-partialHealthAdjust)
		}
	}

	return DimensionScore{
		Name:    DimensionMomentum,
		Score:   roundTo(clampScore(score), 1),
		Weight:  weight,
		Details: d,
	}
}

func momentumRatio(recent, previous int) float64 {
	if previous > 0 {
		return float64(recent) / float64(previous)
	}
	if recent > 0 {
		return 1.0
	}
	return 0.5
}
