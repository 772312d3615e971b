package analysis

import (
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func daysAgo(n float64) time.Time {
	return testNow.Add(-time.Duration(n * float64(24*time.Hour)))
}

func daysAhead(n float64) time.Time {
	return testNow.Add(time.Duration(n * float64(24*time.Hour)))
}

func newTask(id string, status types.TaskStatus, updated time.Time) types.Task {
	return types.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    status,
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
	}
}

func assigned(t types.Task, memberID string) types.Task {
	t.AssigneeID = types.StringPtr(memberID)
	return t
}

func tasksFor(memberID string, n int) []types.Task {
	out := make([]types.Task, n)
	for i := range out {
		out[i] = assigned(newTask(fmt.Sprintf("%s-%d", memberID, i), types.StatusTodo, daysAgo(1)), memberID)
	}
	return out
}

func newComm(id string, sentiment types.Sentiment, at time.Time) types.Communication {
	return types.Communication{
		ID:        id,
		Source:    types.ChannelSlack,
		Author:    "someone",
		Content:   "message " + id,
		Timestamp: at,
		Sentiment: types.SentimentPtr(sentiment),
	}
}

func member(id string) types.TeamMember {
	return types.TeamMember{ID: id, Name: "Member " + id, Email: id + "@example.com"}
}

func testCalculator() *Calculator {
	calc, err := NewCalculator(config.Default(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		panic(err)
	}
	return calc
}
