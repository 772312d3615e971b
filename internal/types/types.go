package types

import (
	"fmt"
	"time"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusBlocked    TaskStatus = "blocked"
)

// IsValid reports whether the status is one of the known states
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return true
	default:
		return false
	}
}

// Sentiment is a precomputed label attached to a communication
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

// Channel is the source a communication came from
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSlack   Channel = "slack"
	ChannelComment Channel = "comment"
	ChannelBug     Channel = "bug"
)

// Task represents a unit of work as reported by a project provider
type Task struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Status     TaskStatus `json:"status" yaml:"status"`
	AssigneeID *string    `json:"assignee_id,omitempty" yaml:"assignee_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" yaml:"updated_at"`
	DueDate    *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	IsBlocked  bool       `json:"is_blocked" yaml:"is_blocked"`
	IsReopened bool       `json:"is_reopened" yaml:"is_reopened"`
	Comments   []string   `json:"comments" yaml:"comments"`
	Tags       []string   `json:"tags" yaml:"tags"`
}

// TeamMember is a person working on the project. Tasks is denormalized and
// not used for scoring; assignment is taken from Task.AssigneeID.
type TeamMember struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Email string   `json:"email" yaml:"email"`
	Tasks []string `json:"tasks" yaml:"tasks"`
}

// Communication is a message about the project with an optional sentiment label
type Communication struct {
	ID        string     `json:"id" yaml:"id"`
	Source    Channel    `json:"source" yaml:"source"`
	Author    string     `json:"author" yaml:"author"`
	Content   string     `json:"content" yaml:"content"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	Sentiment *Sentiment `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
}

// Project is the snapshot the health engine scores
type Project struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	Description    string          `json:"description" yaml:"description"`
	Tasks          []Task          `json:"tasks" yaml:"tasks"`
	TeamMembers    []TeamMember    `json:"team_members" yaml:"team_members"`
	Communications []Communication `json:"communications" yaml:"communications"`
	CreatedAt      time.Time       `json:"created_at" yaml:"created_at"`
}

// Validate checks the structural invariants of a snapshot loaded from an
// untrusted source.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("project id is required")
	}
	for i, t := range p.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task %d: id is required", i)
		}
		if !t.Status.IsValid() {
			return fmt.Errorf("task %s: unknown status %q", t.ID, t.Status)
		}
		if t.UpdatedAt.Before(t.CreatedAt) {
			return fmt.Errorf("task %s: updated_at precedes created_at", t.ID)
		}
	}
	for _, c := range p.Communications {
		if c.Sentiment != nil && !c.Sentiment.IsValid() {
			return fmt.Errorf("communication %s: unknown sentiment %q", c.ID, *c.Sentiment)
		}
	}
	return nil
}

// ProjectSummary is the listing shape returned by the API
type ProjectSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	TaskCount       int       `json:"task_count,omitempty"`
	TeamMemberCount int       `json:"team_member_count,omitempty"`
}

// Summarize builds the listing shape for a project
func (p *Project) Summarize() ProjectSummary {
	return ProjectSummary{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		CreatedAt:       p.CreatedAt,
		TaskCount:       len(p.Tasks),
		TeamMemberCount: len(p.TeamMembers),
	}
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string { return &s }

// SentimentPtr returns a pointer to s
func SentimentPtr(s Sentiment) *Sentiment { return &s }

// TimePtr returns a pointer to t
func TimePtr(t time.Time) *time.Time { return &t }
