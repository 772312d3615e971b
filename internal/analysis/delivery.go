package analysis

import (
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

const upcomingDeadlineDays = 7

// ScoreDelivery scores how well tasks are moving toward completion.
// Aging and overdue work costs points, completed and active work earns them.
func ScoreDelivery(tasks []types.Task, cfg config.ScoringConfig, now time.Time) DimensionScore {
	weight := cfg.DimensionWeights.DeliveryHealth
	if len(tasks) == 0 {
		return DimensionScore{
			Name:    DimensionDelivery,
			Score:   0,
			Weight:  weight,
			Details: DeliveryDetails{Error: "No tasks found"},
		}
	}

	d := DeliveryDetails{TotalTasks: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case types.StatusDone:
			d.Done++
		case types.StatusInProgress:
			d.InProgress++
		case types.StatusTodo:
			d.Todo++
		}

		if t.Status != types.StatusDone {
			if wholeDays(now.Sub(t.UpdatedAt)) > cfg.AgingTaskThresholdDays {
				d.AgingTasks++
			}
			if t.DueDate != nil && t.DueDate.Before(now) {
				d.OverdueTasks++
			}
		}

		if t.DueDate != nil && t.DueDate.After(now) && wholeDays(t.DueDate.Sub(now)) <= upcomingDeadlineDays {
			d.UpcomingDeadlines++
		}
	}

	score := 100.0
	score -= ratio(d.AgingTasks, d.TotalTasks) * 30
	score -= ratio(d.OverdueTasks, d.TotalTasks) * 40
	score += ratio(d.Done, d.TotalTasks) * 20
	score += ratio(d.InProgress, d.TotalTasks) * 10

	return DimensionScore{
		Name:    DimensionDelivery,
		Score:   roundTo(clampScore(score), 1),
		Weight:  weight,
		Details: d,
	}
}
