package analysis

import "fmt"

const (
	agingRiskThreshold     = 3
	agingHighRiskThreshold = 5
)

// DetectRisks derives findings from a computed HealthScore. Rules are
// evaluated independently in a fixed order; a missing dimension simply
// contributes nothing. Risks carry the calculation time of h so the output
// depends on h alone.
func DetectRisks(h HealthScore, agingThresholdDays int) []Risk {
	risks := make([]Risk, 0, 7)
	add := func(id, title, description string, severity Severity, category RiskCategory) {
		risks = append(risks, Risk{
			ID:          id,
			Title:       title,
			Description: description,
			Severity:    severity,
			Category:    category,
			DetectedAt:  h.CalculatedAt,
		})
	}

	if d, ok := detailsOf[DeliveryDetails](h, DimensionDelivery); ok {
		if d.AgingTasks > agingRiskThreshold {
			severity := SeverityMedium
			if d.AgingTasks > agingHighRiskThreshold {
				severity = SeverityHigh
			}
			add("risk_1", "Multiple Aging Tasks",
				fmt.Sprintf("%d tasks have not been updated in over %d days", d.AgingTasks, agingThresholdDays),
				severity, CategoryDelivery)
		}
		if d.OverdueTasks > 0 {
			add("risk_2", "Overdue Tasks",
				fmt.Sprintf("%d tasks are past their due dates", d.OverdueTasks),
				SeverityHigh, CategoryDelivery)
		}
	}

	if d, ok := detailsOf[WorkloadDetails](h, DimensionWorkload); ok && d.OverloadedMembers > 0 {
		add("risk_3", "Team Member Overload",
			fmt.Sprintf("%d team member(s) have excessive task assignments", d.OverloadedMembers),
			SeverityMedium, CategoryWorkload)
	}

	if d, ok := detailsOf[SentimentDetails](h, DimensionCommunication); ok {
		if d.Negative > d.Positive {
			add("risk_4", "Negative Sentiment Trend",
				"Negative communications outnumber positive ones",
				SeverityHigh, CategorySentiment)
		}
		if d.RecentNegativeTrend {
			add("risk_5", "Recent Negative Sentiment",
				"High proportion of negative communications in the last 7 days",
				SeverityMedium, CategorySentiment)
		}
	}

	if d, ok := detailsOf[RiskSignalDetails](h, DimensionRiskSignals); ok {
		if d.BlockedTasks > 0 {
			add("risk_6", "Blocked Tasks",
				fmt.Sprintf("%d task(s) are currently blocked", d.BlockedTasks),
				SeverityHigh, CategoryRisk)
		}
		if d.ReopenedTasks > 0 {
			add("risk_7", "Reopened Issues",
				fmt.Sprintf("%d task(s) have been reopened, indicating quality issues", d.ReopenedTasks),
				SeverityMedium, CategoryRisk)
		}
	}

	return risks
}

// detailsOf finds the named dimension and asserts its details variant
func detailsOf[T DimensionDetails](h HealthScore, name DimensionName) (T, bool) {
	var zero T
	dim, ok := h.Dimension(name)
	if !ok {
		return zero, false
	}
	d, ok := dim.Details.(T)
	return d, ok
}
