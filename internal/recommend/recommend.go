// Package recommend turns a health score and its risks into a short list of
// templated actions.
package recommend

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/analysis"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

const (
	minRecommendations = 3
	maxRecommendations = 5
)

// Priority ranks a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one suggested action
type Recommendation struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Impact      string   `json:"impact"`
	ActionItems []string `json:"action_items,omitempty"`
}

var generalRecommendations = []Recommendation{
	{
		ID:          "rec_6",
		Title:       "Schedule Team Standup",
		Description: "Conduct a team standup to discuss blockers, priorities, and align on next steps.",
		Priority:    PriorityMedium,
		Category:    "general",
		Impact:      "Expected to improve overall coordination",
		ActionItems: []string{
			"List open blockers per team member",
			"Agree on the top three priorities for the week",
		},
	},
	{
		ID:          "rec_7",
		Title:       "Review Project Timeline",
		Description: "Review project timeline and adjust deadlines if necessary to ensure realistic expectations.",
		Priority:    PriorityMedium,
		Category:    "delivery",
		Impact:      "Expected to improve delivery planning",
		ActionItems: []string{
			"Compare remaining scope against upcoming deadlines",
			"Move or split milestones that are no longer realistic",
		},
	},
	{
		ID:          "rec_9",
		Title:       "Hold a Retrospective",
		Description: "Run a short retrospective to capture what is slowing the team down and agree on one change.",
		Priority:    PriorityLow,
		Category:    "general",
		Impact:      "Expected to improve team practices over the next iterations",
		ActionItems: []string{
			"Collect what slowed the last iteration down",
			"Pick one change and assign an owner",
		},
	},
}

var momentumRecommendation = Recommendation{
	ID:          "rec_8",
	Title:       "Restore Delivery Momentum",
	Description: "Break the largest open items into tasks that can be finished this week.",
	Priority:    PriorityMedium,
	Category:    "momentum",
	Impact:      "Expected to improve momentum by 10-20 points",
	ActionItems: []string{
		"Split open items larger than a few days",
		"Limit work in progress per team member",
	},
}

// Generate builds recommendations from the lowest-scoring dimension, adds
// momentum advice when the trend is declining, and tops up with general
// advice. The result is deterministic and holds between three and five
// entries.
func Generate(h analysis.HealthScore, agingThresholdDays int) []Recommendation {
	recs := make([]Recommendation, 0, maxRecommendations)

	if lowest, ok := lowestDimension(h); ok {
		recs = append(recs, forDimension(lowest, agingThresholdDays)...)
	}

	if h.Trend == analysis.TrendDeclining && !containsID(recs, momentumRecommendation.ID) {
		recs = append(recs, momentumRecommendation)
	}

	for _, general := range generalRecommendations {
		if len(recs) >= minRecommendations {
			break
		}
		recs = append(recs, general)
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func containsID(recs []Recommendation, id string) bool {
	for _, r := range recs {
		if r.ID == id {
			return true
		}
	}
	return false
}

// lowestDimension returns the first dimension with the minimum score
func lowestDimension(h analysis.HealthScore) (analysis.DimensionScore, bool) {
	if len(h.Dimensions) == 0 {
		return analysis.DimensionScore{}, false
	}
	lowest := h.Dimensions[0]
	for _, d := range h.Dimensions[1:] {
		if d.Score < lowest.Score {
			lowest = d
		}
	}
	return lowest, true
}

func forDimension(d analysis.DimensionScore, agingThresholdDays int) []Recommendation {
	switch details := d.Details.(type) {
	case analysis.DeliveryDetails:
		recs := []Recommendation{{
			ID:          "rec_1",
			Title:       "Address Aging Tasks",
			Description: fmt.Sprintf("Review and update tasks that haven't been touched in over %d days. Reassign or close stale tasks.", agingThresholdDays),
			Priority:    PriorityHigh,
			Category:    "delivery",
			Impact:      "Expected to improve delivery health by 10-20 points",
			ActionItems: []string{
				fmt.Sprintf("Review %d aging task(s) with their assignees", details.AgingTasks),
				"Close or reassign tasks that are no longer relevant",
			},
		}}
		if details.OverdueTasks > 0 {
			recs = append(recs, Recommendation{
				ID:          "rec_2",
				Title:       "Resolve Overdue Tasks",
				Description: fmt.Sprintf("Focus on completing %d overdue task(s) immediately.", details.OverdueTasks),
				Priority:    PriorityHigh,
				Category:    "delivery",
				Impact:      "Expected to improve delivery health by 15-25 points",
				ActionItems: []string{
					"Rank overdue tasks by business impact",
					"Renegotiate due dates that cannot be met",
				},
			})
		}
		return recs

	case analysis.WorkloadDetails:
		return []Recommendation{{
			ID:          "rec_3",
			Title:       "Redistribute Workload",
			Description: "Balance task assignments across team members to prevent overload and underutilization.",
			Priority:    PriorityMedium,
			Category:    "workload",
			Impact:      "Expected to improve workload balance by 10-15 points",
			ActionItems: []string{
				fmt.Sprintf("Move work away from %d overloaded member(s)", details.OverloadedMembers),
				fmt.Sprintf("Give %d underutilized member(s) unassigned tasks", details.UnderutilizedMembers),
			},
		}}

	case analysis.SentimentDetails:
		return []Recommendation{{
			ID:          "rec_4",
			Title:       "Improve Client Communication",
			Description: "Schedule a check-in call with the client to address concerns and align expectations.",
			Priority:    PriorityHigh,
			Category:    "sentiment",
			Impact:      "Expected to improve sentiment score by 10-20 points",
			ActionItems: []string{
				fmt.Sprintf("Follow up on %d negative communication(s)", details.Negative),
				"Share a short status update with the client",
			},
		}}

	case analysis.RiskSignalDetails:
		if details.BlockedTasks > 0 {
			return []Recommendation{{
				ID:          "rec_5",
				Title:       "Unblock Blocked Tasks",
				Description: fmt.Sprintf("Identify and resolve blockers for %d blocked task(s).", details.BlockedTasks),
				Priority:    PriorityHigh,
				Category:    "risk",
				Impact:      "Expected to improve risk signals by 15-25 points",
				ActionItems: []string{
					"Name an owner for every blocker",
					"Escalate blockers older than two days",
				},
			}}
		}

	case analysis.MomentumDetails:
		return []Recommendation{momentumRecommendation}
	}
	return nil
}

// HealthReport is the full answer for one project
type HealthReport struct {
	ID              string               `json:"report_id"`
	ProjectID       string               `json:"project_id"`
	ProjectName     string               `json:"project_name"`
	HealthScore     analysis.HealthScore `json:"health_score"`
	Risks           []analysis.Risk      `json:"risks"`
	Recommendations []Recommendation     `json:"recommendations"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// BuildReport assembles a HealthReport for an assessed project
func BuildReport(project *types.Project, a analysis.Assessment, agingThresholdDays int) HealthReport {
	return HealthReport{
		ID:              uuid.NewString(),
		ProjectID:       project.ID,
		ProjectName:     project.Name,
		HealthScore:     a.Health,
		Risks:           a.Risks,
		Recommendations: Generate(a.Health, agingThresholdDays),
		GeneratedAt:     a.Health.CalculatedAt,
	}
}
