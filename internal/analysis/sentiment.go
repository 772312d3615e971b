package analysis

import (
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

const (
	recentWindowDays        = 7
	recentNegativeThreshold = 0.3
	recentNegativePenalty   = 10.0
)

// ScoreCommunication scores the sentiment of project communications. Labels
// are supplied by the data source; unlabeled messages count toward the total
// only.
func ScoreCommunication(comms []types.Communication, cfg config.ScoringConfig, now time.Time) DimensionScore {
	weight := cfg.DimensionWeights.CommunicationSentiment
	if len(comms) == 0 {
		return DimensionScore{
			Name:    DimensionCommunication,
			Score:   50,
			Weight:  weight,
			Details: SentimentDetails{Message: "No communications found"},
		}
	}

	d := SentimentDetails{TotalCommunications: len(comms)}
	recent, recentNegative := 0, 0
	for _, c := range comms {
		negative := false
		if c.Sentiment != nil {
			switch *c.Sentiment {
			case types.SentimentPositive:
				d.Positive++
			case types.SentimentNeutral:
				d.Neutral++
			case types.SentimentNegative:
				d.Negative++
				negative = true
			}
		}
		if wholeDays(now.Sub(c.Timestamp)) <= recentWindowDays {
			recent++
			if negative {
				recentNegative++
			}
		}
	}

	score := 50.0
	score += ratio(d.Positive, d.TotalCommunications) * 50
	score -= ratio(d.Negative, d.TotalCommunications) * 50
	score = clampScore(score)

	if recent > 0 && ratio(recentNegative, recent) > recentNegativeThreshold {
		d.RecentNegativeTrend = true
		score = clampScore(score - recentNegativePenalty)
	}

	return DimensionScore{
		Name:    DimensionCommunication,
		Score:   roundTo(score, 1),
		Weight:  weight,
		Details: d,
	}
}
