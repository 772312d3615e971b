package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

type mockProjectDef struct {
	id          string
	name        string
	description string
}

var mockProjects = []mockProjectDef{
	{"proj_1", "E-Commerce Platform", "A modern e-commerce platform with AI-powered recommendations"},
	{"proj_2", "Mobile Banking App", "Cross-platform banking app with instant transfers and card controls"},
	{"proj_3", "Healthcare Dashboard", "Clinical operations dashboard for patient flow and staffing"},
}

var mockTeam = []types.TeamMember{
	{ID: "tm1", Name: "Alice Johnson", Email: "alice@example.com"},
	{ID: "tm2", Name: "Bob Smith", Email: "bob@example.com"},
	{ID: "tm3", Name: "Carol Williams", Email: "carol@example.com"},
	{ID: "tm4", Name: "David Brown", Email: "david@example.com"},
}

type mockTaskTemplate struct {
	title    string
	status   types.TaskStatus
	daysOld  int
	assignee int // index into mockTeam, -1 for unassigned
	blocked  bool
	reopened bool
}

var mockTaskTemplates = []mockTaskTemplate{
	{title: "Implement user authentication", status: types.StatusDone, daysOld: 5, assignee: 0},
	{title: "Design database schema", status: types.StatusDone, daysOld: 8, assignee: 1},
	{title: "Setup CI/CD pipeline", status: types.StatusInProgress, daysOld: 2, assignee: 0},
	{title: "Write API documentation", status: types.StatusInProgress, daysOld: 1, assignee: 2},
	{title: "Add unit tests", status: types.StatusTodo, daysOld: 0, assignee: 1},
	{title: "Performance optimization", status: types.StatusTodo, daysOld: 0, assignee: 3},
	{title: "Fix critical bug #214", status: types.StatusBlocked, daysOld: 12, assignee: 0, blocked: true, reopened: true},
	{title: "Refactor legacy code", status: types.StatusInProgress, daysOld: 15, assignee: 1},
	{title: "Update dependencies", status: types.StatusTodo, daysOld: 20, assignee: -1},
	{title: "Create user dashboard", status: types.StatusInProgress, daysOld: 3, assignee: 0},
	{title: "Implement search feature", status: types.StatusDone, daysOld: 4, assignee: 2},
	{title: "Write integration tests", status: types.StatusTodo, daysOld: 2, assignee: 3},
	{title: "Setup monitoring", status: types.StatusDone, daysOld: 6, assignee: 1},
}

var (
	mockPositiveComments = []string{"Great progress on this!", "Looks good, ready to merge.", "Excellent work, thanks!"}
	mockNeutralComments  = []string{"Please review when you have a chance.", "Updated the implementation.", "Added requested changes."}
	mockNegativeComments = []string{
		"This is blocking our release.",
		"We need this fixed ASAP, client is waiting.",
		"This has been delayed too long.",
		"Not meeting the requirements.",
	}
	mockTags = []string{"bug", "feature", "urgent", "backend", "frontend"}
)

type mockCommTemplate struct {
	source    types.Channel
	author    string
	content   string
	sentiment types.Sentiment
	daysAgo   int
}

var mockCommTemplates = []mockCommTemplate{
	{types.ChannelEmail, "client@example.com", "The project is looking great! Keep up the good work.", types.SentimentPositive, 2},
	{types.ChannelSlack, "Alice Johnson", "Can we discuss the API changes in the standup?", types.SentimentNeutral, 1},
	{types.ChannelComment, "Bob Smith", "This bug is critical and needs immediate attention.", types.SentimentNegative, 3},
	{types.ChannelBug, "client@example.com", "The login feature is not working as expected. This is urgent.", types.SentimentNegative, 5},
	{types.ChannelEmail, "client@example.com", "Thanks for the quick turnaround on the last issue.", types.SentimentPositive, 7},
	{types.ChannelSlack, "Carol Williams", "I've completed the frontend updates.", types.SentimentNeutral, 1},
}

// MockProvider serves three demo projects. The same seed and clock always
// produce the same snapshots.
type MockProvider struct {
	seed int64
	now  func() time.Time

	once     sync.Once
	projects []*types.Project
	byID     map[string]*types.Project
}

// NewMockProvider creates a demo provider. A nil clock means time.Now,
// sampled once when the projects are first generated.
func NewMockProvider(seed int64, now func() time.Time) *MockProvider {
	if now == nil {
		now = time.Now
	}
	return &MockProvider{seed: seed, now: now}
}

func (m *MockProvider) load() {
	m.once.Do(func() {
		now := m.now()
		m.byID = make(map[string]*types.Project, len(mockProjects))
		for i, def := range mockProjects {
			r := rand.New(rand.NewSource(m.seed + int64(i)))
			p := generateMockProject(r, def, now)
			m.projects = append(m.projects, p)
			m.byID[p.ID] = p
		}
	})
}

// GetProject returns one demo project
func (m *MockProvider) GetProject(ctx context.Context, id string) (*types.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.load()
	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, nil
}

// ListProjects returns the demo projects in a fixed order
func (m *MockProvider) ListProjects(ctx context.Context) ([]*types.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.load()
	out := make([]*types.Project, len(m.projects))
	copy(out, m.projects)
	return out, nil
}

func generateMockProject(r *rand.Rand, def mockProjectDef, now time.Time) *types.Project {
	team := make([]types.TeamMember, len(mockTeam))
	copy(team, mockTeam)

	tasks := make([]types.Task, 0, len(mockTaskTemplates))
	for i, tpl := range mockTaskTemplates {
		created := now.Add(-days(tpl.daysOld))
		task := types.Task{
			ID:         fmt.Sprintf("task_%d", i+1),
			Title:      tpl.title,
			Status:     tpl.status,
			CreatedAt:  created,
			UpdatedAt:  created.Add(days(r.Intn(tpl.daysOld + 1))),
			IsBlocked:  tpl.blocked,
			IsReopened: tpl.reopened,
			Comments:   mockComments(r, tpl.status == types.StatusBlocked),
			Tags:       sample(r, mockTags, r.Intn(3)),
		}
		if r.Float64() > 0.3 {
			task.DueDate = types.TimePtr(now.Add(days(r.Intn(16) - 5)))
		}
		if tpl.assignee >= 0 {
			member := &team[tpl.assignee]
			task.AssigneeID = types.StringPtr(member.ID)
			member.Tasks = append(member.Tasks, task.ID)
		}
		tasks = append(tasks, task)
	}

	comms := make([]types.Communication, 0, len(mockCommTemplates))
	for i, tpl := range mockCommTemplates {
		comms = append(comms, types.Communication{
			ID:        fmt.Sprintf("comm_%d", i+1),
			Source:    tpl.source,
			Author:    tpl.author,
			Content:   tpl.content,
			Timestamp: now.Add(-days(tpl.daysAgo)),
			Sentiment: types.SentimentPtr(tpl.sentiment),
		})
	}

	return &types.Project{
		ID:             def.id,
		Name:           def.name,
		Description:    def.description,
		Tasks:          tasks,
		TeamMembers:    team,
		Communications: comms,
		CreatedAt:      now.Add(-days(60)),
	}
}

func mockComments(r *rand.Rand, negative bool) []string {
	if negative {
		return sample(r, mockNegativeComments, 1+r.Intn(2))
	}
	pool := append(append([]string{}, mockPositiveComments...), mockNeutralComments...)
	return sample(r, pool, r.Intn(3))
}

// sample picks k distinct elements in random order
func sample(r *rand.Rand, from []string, k int) []string {
	out := make([]string, 0, k)
	for _, i := range r.Perm(len(from))[:k] {
		out = append(out, from[i])
	}
	return out
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
