package analysis

import "time"

// DimensionName identifies one of the five fixed health dimensions
type DimensionName string

const (
	DimensionDelivery      DimensionName = "Delivery Health"
	DimensionWorkload      DimensionName = "Workload Balance"
	DimensionCommunication DimensionName = "Communication & Sentiment"
	DimensionRiskSignals   DimensionName = "Risk & Dependency Signals"
	DimensionMomentum      DimensionName = "Momentum Trend"
)

// Dimensions lists the dimension names in the order they are scored
var Dimensions = []DimensionName{
	DimensionDelivery,
	DimensionWorkload,
	DimensionCommunication,
	DimensionRiskSignals,
	DimensionMomentum,
}

func (d DimensionName) IsValid() bool {
	switch d {
	case DimensionDelivery, DimensionWorkload, DimensionCommunication, DimensionRiskSignals, DimensionMomentum:
		return true
	default:
		return false
	}
}

// HealthStatus is the qualitative band of an overall score
type HealthStatus string

const (
	StatusHealthy HealthStatus = "healthy"
	StatusWatch   HealthStatus = "watch"
	StatusAtRisk  HealthStatus = "at_risk"
)

func (s HealthStatus) IsValid() bool {
	switch s {
	case StatusHealthy, StatusWatch, StatusAtRisk:
		return true
	default:
		return false
	}
}

// Trend compares an overall score with the previously recorded one.
// The zero value means no previous score was available.
type Trend string

const (
	TrendNone      Trend = ""
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Severity ranks a detected risk
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// Rank orders severities, higher is more severe
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RiskCategory groups risks by the dimension that raised them
type RiskCategory string

const (
	CategoryDelivery  RiskCategory = "delivery"
	CategoryWorkload  RiskCategory = "workload"
	CategorySentiment RiskCategory = "sentiment"
	CategoryRisk      RiskCategory = "risk"
)

func (c RiskCategory) IsValid() bool {
	switch c {
	case CategoryDelivery, CategoryWorkload, CategorySentiment, CategoryRisk:
		return true
	default:
		return false
	}
}

// DimensionDetails is the per-dimension diagnostic record. Only the detail
// types declared in this package implement it.
type DimensionDetails interface {
	dimension() DimensionName
}

// DeliveryDetails backs the Delivery Health dimension
type DeliveryDetails struct {
	Error             string `json:"error,omitempty"`
	TotalTasks        int    `json:"total_tasks"`
	Done              int    `json:"done"`
	InProgress        int    `json:"in_progress"`
	Todo              int    `json:"todo"`
	AgingTasks        int    `json:"aging_tasks"`
	OverdueTasks      int    `json:"overdue_tasks"`
	UpcomingDeadlines int    `json:"upcoming_deadlines"`
}

func (DeliveryDetails) dimension() DimensionName { return DimensionDelivery }

// MemberLoad is one row of the workload distribution
type MemberLoad struct {
	MemberID   string `json:"member_id"`
	Name       string `json:"name"`
	Total      int    `json:"total"`
	Done       int    `json:"done"`
	InProgress int    `json:"in_progress"`
}

// WorkloadDetails backs the Workload Balance dimension
type WorkloadDetails struct {
	Error                string       `json:"error,omitempty"`
	TaskDistribution     []MemberLoad `json:"task_distribution"`
	OverloadedMembers    int          `json:"overloaded_members"`
	UnderutilizedMembers int          `json:"underutilized_members"`
}

func (WorkloadDetails) dimension() DimensionName { return DimensionWorkload }

// SentimentDetails backs the Communication & Sentiment dimension
type SentimentDetails struct {
	Message             string `json:"message,omitempty"`
	TotalCommunications int    `json:"total_communications"`
	Positive            int    `json:"positive"`
	Neutral             int    `json:"neutral"`
	Negative            int    `json:"negative"`
	RecentNegativeTrend bool   `json:"recent_negative_trend"`
}

func (SentimentDetails) dimension() DimensionName { return DimensionCommunication }

// RiskSignalDetails backs the Risk & Dependency Signals dimension
type RiskSignalDetails struct {
	BlockedTasks        int `json:"blocked_tasks"`
	ReopenedTasks       int `json:"reopened_tasks"`
	HighRiskTaggedTasks int `json:"high_risk_tagged_tasks"`
}

func (RiskSignalDetails) dimension() DimensionName { return DimensionRiskSignals }

// MomentumDetails backs the Momentum Trend dimension
type MomentumDetails struct {
	Message             string  `json:"message,omitempty"`
	RecentCompletions   int     `json:"recent_completions"`
	PreviousCompletions int     `json:"previous_completions"`
	MomentumRatio       float64 `json:"momentum_ratio"`
	// PartialHealth is the delivery+workload weighted sum compared against
	// the previous overall score, set only when a previous score was given.
	PartialHealth *float64 `json:"partial_health,omitempty"`
}

func (MomentumDetails) dimension() DimensionName { return DimensionMomentum }

// DimensionScore is the result of one dimension scorer
type DimensionScore struct {
	Name    DimensionName    `json:"name"`
	Score   float64          `json:"score"`
	Weight  float64          `json:"weight"`
	Details DimensionDetails `json:"details"`
}

// HealthScore is the aggregated result for a project
type HealthScore struct {
	OverallScore  float64          `json:"overall_score"`
	Status        HealthStatus     `json:"status"`
	Dimensions    []DimensionScore `json:"dimensions"`
	CalculatedAt  time.Time        `json:"calculated_at"`
	PreviousScore *float64         `json:"previous_score,omitempty"`
	Trend         Trend            `json:"trend,omitempty"`
}

// Dimension returns the named dimension, if present
func (h HealthScore) Dimension(name DimensionName) (DimensionScore, bool) {
	for _, d := range h.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return DimensionScore{}, false
}

// Risk is a concrete finding derived from a HealthScore
type Risk struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
	Category    RiskCategory `json:"category"`
	DetectedAt  time.Time    `json:"detected_at"`
}
