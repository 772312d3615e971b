package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/project-health-monitor/internal/errors"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/recommend"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/store"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/types"
)

const maxHistoryLimit = 100

// ScoreResponse is the lightweight health answer
type ScoreResponse struct {
	ProjectID     string                `json:"project_id"`
	Score         float64               `json:"score"`
	Status        analysis.HealthStatus `json:"status"`
	Trend         analysis.Trend        `json:"trend,omitempty"`
	PreviousScore *float64              `json:"previous_score,omitempty"`
	CalculatedAt  time.Time             `json:"calculated_at"`
}

// PortfolioEntry summarizes the health of one project
type PortfolioEntry struct {
	ProjectID   string                `json:"project_id"`
	ProjectName string                `json:"project_name"`
	Score       float64               `json:"score"`
	Status      analysis.HealthStatus `json:"status"`
	Trend       analysis.Trend        `json:"trend,omitempty"`
	RiskCount   int                   `json:"risk_count"`
}

// HistoryResponse lists recorded scores, newest first
type HistoryResponse struct {
	ProjectID string              `json:"project_id"`
	Records   []store.ScoreRecord `json:"records"`
}

// handleRoot godoc
// @Summary Service information
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": ServiceName, "version": s.version})
}

// handleHealth godoc
// @Summary Liveness check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	body := gin.H{"service": s.metrics.GetStats()}
	if s.cache != nil {
		body["cache"] = s.cache.Stats()
	}
	if s.limiter != nil {
		body["rate_limit"] = s.limiter.GetStats()
	}
	if s.compression != nil {
		body["compression"] = s.compression.GetStats()
	}
	body["locks"] = gin.H{"active_keys": s.locks.Len()}
	for name, fn := range s.stats {
		body[name] = fn()
	}
	c.JSON(http.StatusOK, body)
}

// handleListProjects godoc
// @Summary List projects
// @Produce json
// @Success 200 {array} types.ProjectSummary
// @Router /api/projects [get]
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.provider.ListProjects(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]types.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, types.ProjectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

// handleGetProject godoc
// @Summary Project details with task and team counts
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} types.ProjectSummary
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/projects/{id} [get]
func (s *Server) handleGetProject(c *gin.Context) {
	project, err := s.provider.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(s.lookupError(c.Param("id"), err))
		return
	}
	c.JSON(http.StatusOK, project.Summarize())
}

// handleProjectHealth godoc
// @Summary Full health report
// @Description Scores the project, records the score as the next previous score and returns risks and recommendations.
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} recommend.HealthReport
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/projects/{id}/health [get]
func (s *Server) handleProjectHealth(c *gin.Context) {
	project, assessment, err := s.assessByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	report := recommend.BuildReport(project, assessment, s.calc.Config().AgingTaskThresholdDays)
	c.JSON(http.StatusOK, report)
}

// handleHealthScore godoc
// @Summary Lightweight health score
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} ScoreResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/projects/{id}/health/score [get]
func (s *Server) handleHealthScore(c *gin.Context) {
	project, assessment, err := s.assessByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	h := assessment.Health
	c.JSON(http.StatusOK, ScoreResponse{
		ProjectID:     project.ID,
		Score:         h.OverallScore,
		Status:        h.Status,
		Trend:         h.Trend,
		PreviousScore: h.PreviousScore,
		CalculatedAt:  h.CalculatedAt,
	})
}

// handleHistory godoc
// @Summary Recorded score history
// @Produce json
// @Param id path string true "Project ID"
// @Param limit query int false "Maximum records" default(30)
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /api/projects/{id}/history [get]
func (s *Server) handleHistory(c *gin.Context) {
	id := c.Param("id")

	limit := store.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			_ = c.Error(apperrors.NewValidationError(
				fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit), raw))
			return
		}
		limit = n
	}

	if _, err := s.provider.GetProject(c.Request.Context(), id); err != nil {
		_ = c.Error(s.lookupError(id, err))
		return
	}

	records, err := s.store.History(c.Request.Context(), id, limit)
	if err != nil {
		s.metrics.IncrementStoreError()
		_ = c.Error(apperrors.NewInternalError("failed to read score history", err))
		return
	}
	if records == nil {
		records = []store.ScoreRecord{}
	}

	c.JSON(http.StatusOK, HistoryResponse{ProjectID: id, Records: records})
}

// handlePortfolioHealth godoc
// @Summary Health score for every project
// @Produce json
// @Success 200 {array} PortfolioEntry
// @Router /api/projects/health [get]
func (s *Server) handlePortfolioHealth(c *gin.Context) {
	projects, err := s.provider.ListProjects(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	entries := make([]PortfolioEntry, len(projects))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(portfolioWorkers)

	for i, project := range projects {
		g.Go(func() error {
			assessment, err := s.assess(ctx, project)
			if err != nil {
				return err
			}
			entries[i] = PortfolioEntry{
				ProjectID:   project.ID,
				ProjectName: project.Name,
				Score:       assessment.Health.OverallScore,
				Status:      assessment.Health.Status,
				Trend:       assessment.Health.Trend,
				RiskCount:   len(assessment.Risks),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) assessByID(ctx context.Context, id string) (*types.Project, analysis.Assessment, error) {
	project, err := s.provider.GetProject(ctx, id)
	if err != nil {
		return nil, analysis.Assessment{}, s.lookupError(id, err)
	}

	assessment, err := s.assess(ctx, project)
	if err != nil {
		return nil, analysis.Assessment{}, err
	}
	return project, assessment, nil
}

// assess scores a project while holding its lock so that concurrent requests
// read and record the previous score in order.
func (s *Server) assess(ctx context.Context, project *types.Project) (analysis.Assessment, error) {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	start := time.Now()
	assessment, err := s.calc.Assess(ctx, project, s.store)
	if err != nil {
		s.metrics.IncrementStoreError()
		return analysis.Assessment{}, apperrors.NewInternalError("failed to assess project health", err)
	}

	h := assessment.Health
	s.metrics.RecordHealthComputation(string(h.Status))
	s.logger.HealthLogger(project.ID, h.OverallScore, string(h.Status), string(h.Trend), len(assessment.Risks), time.Since(start))

	return assessment, nil
}

func (s *Server) lookupError(id string, err error) error {
	appErr := apperrors.ToAppError(err)
	if appErr.Category == apperrors.CategoryNotFound {
		return apperrors.NewNotFoundError("project", id, err)
	}
	return appErr
}
