package analysis

import (
	"strings"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

var riskKeywords = map[string]struct{}{
	"urgent":   {},
	"critical": {},
	"blocker":  {},
	"bug":      {},
}

// ScoreRiskSignals penalizes blocked work, reopened work and tasks tagged
// with a risk keyword. No tasks means no risk.
func ScoreRiskSignals(tasks []types.Task, cfg config.ScoringConfig) DimensionScore {
	weight := cfg.DimensionWeights.RiskSignals
	if len(tasks) == 0 {
		return DimensionScore{
			Name:    DimensionRiskSignals,
			Score:   100,
			Weight:  weight,
			Details: RiskSignalDetails{},
		}
	}

	var d RiskSignalDetails
	for _, t := range tasks {
		if t.IsBlocked {
			d.BlockedTasks++
		}
		if t.IsReopened {
			d.ReopenedTasks++
		}
		if hasRiskTag(t.Tags) {
			d.HighRiskTaggedTasks++
		}
	}

	total := len(tasks)
	score := 100.0
	score -= ratio(d.BlockedTasks, total) * 40
	score -= ratio(d.ReopenedTasks, total) * 30
	score -= ratio(d.HighRiskTaggedTasks, total) * 20

	return DimensionScore{
		Name:    DimensionRiskSignals,
		Score:   roundTo(clampScore(score), 1),
		Weight:  weight,
		Details: d,
	}
}

func hasRiskTag(tags []string) bool {
	for _, tag := range tags {
		if _, ok := riskKeywords[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}
