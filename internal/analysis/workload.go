package analysis

import (
	"math"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

const (
	maxOverloadPenalty     = 30.0
	underutilizedPenalty   = 15.0
	unevenSpreadPenalty    = 20.0
	unevenSpreadStdDevRate = 0.5
)

// ScoreWorkload scores how evenly assigned tasks are spread across the team
func ScoreWorkload(members []types.TeamMember, tasks []types.Task, cfg config.ScoringConfig) DimensionScore {
	weight := cfg.DimensionWeights.WorkloadBalance
	if len(members) == 0 {
		return DimensionScore{
			Name:    DimensionWorkload,
			Score:   0,
			Weight:  weight,
			Details: WorkloadDetails{Error: "No team members found"},
		}
	}

	// A member listed twice is counted once, at its first position.
	index := make(map[string]int, len(members))
	dist := make([]MemberLoad, 0, len(members))
	for _, m := range members {
		if _, dup := index[m.ID]; dup {
			continue
		}
		index[m.ID] = len(dist)
		dist = append(dist, MemberLoad{MemberID: m.ID, Name: m.Name})
	}

	for _, t := range tasks {
		if t.AssigneeID == nil {
			continue
		}
		i, ok := index[*t.AssigneeID]
		if !ok {
			continue
		}
		dist[i].Total++
		switch t.Status {
		case types.StatusDone:
			dist[i].Done++
		case types.StatusInProgress:
			dist[i].InProgress++
		}
	}

	overload := float64(cfg.OverloadThresholdTasks)
	under := float64(cfg.UnderutilizationThresholdTasks)

	totals := make([]float64, len(dist))
	d := WorkloadDetails{TaskDistribution: dist}
	for i, m := range dist {
		totals[i] = float64(m.Total)
		if totals[i] > overload {
			d.OverloadedMembers++
		}
		if totals[i] < under {
			d.UnderutilizedMembers++
		}
	}

	avg := mean(totals)
	lo, hi := minMax(totals)

	score := 100.0
	if hi > overload {
		score -= overloadPenalty(hi, overload)
	}
	if lo < under && avg > 0 {
		score -= underutilizedPenalty
	}
	if avg > 0 && populationStdDev(totals) > avg*unevenSpreadStdDevRate {
		score -= unevenSpreadPenalty
	}

	return DimensionScore{
		Name:    DimensionWorkload,
		Score:   roundTo(clampScore(score), 1),
		Weight:  weight,
		Details: d,
	}
}

// overloadPenalty grows with the relative excess of the busiest member,
// capped at maxOverloadPenalty. A zero threshold means any load is excess.
func overloadPenalty(busiest, threshold float64) float64 {
	if threshold <= 0 {
		return maxOverloadPenalty
	}
	return math.Min(maxOverloadPenalty, ((busiest-threshold)/threshold)*20)
}
