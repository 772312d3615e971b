package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/adapters"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/analysis"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/cache"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/middleware"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/monitoring"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/ratelimit"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/security"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/store"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	store   store.HistoryStore
	metrics *monitoring.Metrics
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()

	clock := func() time.Time { return fixedNow }
	calc, err := analysis.NewCalculator(config.Default(), analysis.WithClock(clock))
	require.NoError(t, err)

	d := Deps{
		Calculator: calc,
		Provider:   adapters.NewMockProvider(42, clock),
		Store:      store.NewMemoryStore(),
		Metrics:    monitoring.NewMetrics(),
		Logger:     monitoring.NewLoggerTo(io.Discard, slog.LevelError),
		Security:   security.DefaultSecurityConfig(),
	}
	if mutate != nil {
		mutate(&d)
	}

	return &testEnv{router: New(d).Router(), store: d.Store, metrics: d.Metrics}
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"AI Project Health Monitor API","version":"1.0.0"}`, w.Body.String())

	w = env.get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/missing", nil)
	req.Header.Set(requestIDHeader, "req-abc")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "req-abc", w.Header().Get(requestIDHeader))
	assert.Contains(t, w.Body.String(), `"request_id":"req-abc"`)
}

func TestListProjects(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/projects")
	require.Equal(t, http.StatusOK, w.Code)

	projects := decode[[]map[string]interface{}](t, w)
	require.Len(t, projects, 3)
	assert.Equal(t, "proj_1", projects[0]["id"])
	assert.Equal(t, "E-Commerce Platform", projects[0]["name"])
	assert.NotContains(t, projects[0], "task_count")
}

func TestGetProject(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name     string
		path     string
		status   int
		category string
	}{
		{"known project", "/api/projects/proj_2", http.StatusOK, ""},
		{"unknown project", "/api/projects/proj_99", http.StatusNotFound, "not_found"},
		{"malformed id", "/api/projects/bad..id", http.StatusBadRequest, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get(tt.path)
			require.Equal(t, tt.status, w.Code, w.Body.String())

			body := decode[map[string]interface{}](t, w)
			if tt.category != "" {
				assert.Equal(t, tt.category, body["category"])
				return
			}
			assert.Equal(t, "proj_2", body["id"])
			assert.Greater(t, body["task_count"], 0.0)
			assert.Equal(t, 4.0, body["team_member_count"])
		})
	}
}

func TestProjectHealthReport(t *testing.T) {
	env := newTestEnv(t, nil)

	first := env.get("/api/projects/proj_1/health")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	report := decode[map[string]interface{}](t, first)
	assert.NotEmpty(t, report["report_id"])
	assert.Equal(t, "proj_1", report["project_id"])
	assert.Equal(t, "E-Commerce Platform", report["project_name"])

	health := report["health_score"].(map[string]interface{})
	assert.Len(t, health["dimensions"], 5)
	assert.NotContains(t, health, "previous_score")

	recs := report["recommendations"].([]interface{})
	assert.GreaterOrEqual(t, len(recs), 3)
	assert.LessOrEqual(t, len(recs), 5)

	second := env.get("/api/projects/proj_1/health")
	require.Equal(t, http.StatusOK, second.Code)

	again := decode[map[string]interface{}](t, second)
	againHealth := again["health_score"].(map[string]interface{})
	assert.Equal(t, health["overall_score"], againHealth["previous_score"])
	assert.Equal(t, "stable", againHealth["trend"])
	assert.NotEqual(t, report["report_id"], again["report_id"])
}

func TestHealthScoreMatchesReport(t *testing.T) {
	env := newTestEnv(t, nil)

	type reportShape struct {
		HealthScore struct {
			OverallScore float64               `json:"overall_score"`
			Status       analysis.HealthStatus `json:"status"`
		} `json:"health_score"`
	}
	report := decode[reportShape](t, env.get("/api/projects/proj_3/health"))

	w := env.get("/api/projects/proj_3/health/score")
	require.Equal(t, http.StatusOK, w.Code)

	score := decode[ScoreResponse](t, w)
	assert.Equal(t, "proj_3", score.ProjectID)
	assert.Equal(t, report.HealthScore.OverallScore, score.Score)
	assert.Equal(t, report.HealthScore.Status, score.Status)
	require.NotNil(t, score.PreviousScore)
	assert.Equal(t, report.HealthScore.OverallScore, *score.PreviousScore)
	assert.True(t, score.CalculatedAt.Equal(fixedNow))

	assert.Equal(t, http.StatusNotFound, env.get("/api/projects/nope/health/score").Code)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/projects/proj_1/history")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"project_id":"proj_1","records":[]}`, w.Body.String())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, env.get("/api/projects/proj_1/health/score").Code)
	}

	history := decode[HistoryResponse](t, env.get("/api/projects/proj_1/history"))
	assert.Len(t, history.Records, 3)

	limited := decode[HistoryResponse](t, env.get("/api/projects/proj_1/history?limit=1"))
	assert.Len(t, limited.Records, 1)

	for _, bad := range []string{"0", "101", "abc"} {
		w := env.get("/api/projects/proj_1/history?limit=" + bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}

	assert.Equal(t, http.StatusNotFound, env.get("/api/projects/proj_9/history").Code)
}

func TestPortfolioHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/projects/health")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entries := decode[[]PortfolioEntry](t, w)
	require.Len(t, entries, 3)
	for i, id := range []string{"proj_1", "proj_2", "proj_3"} {
		assert.Equal(t, id, entries[i].ProjectID)
		assert.True(t, entries[i].Status.IsValid())
		assert.GreaterOrEqual(t, entries[i].Score, 0.0)
		assert.LessOrEqual(t, entries[i].Score, 100.0)
	}

	single := decode[ScoreResponse](t, env.get("/api/projects/proj_2/health/score"))
	require.NotNil(t, single.PreviousScore)
	assert.Equal(t, entries[1].Score, *single.PreviousScore)
	assert.Equal(t, int64(4), env.metrics.HealthComputations)
}

func TestConcurrentAssessmentsAreSerialized(t *testing.T) {
	env := newTestEnv(t, nil)

	const n = 20
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.get("/api/projects/proj_1/health/score").Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	records, err := env.store.History(context.Background(), "proj_1", 100)
	require.NoError(t, err)
	assert.Len(t, records, n)
}

type failingStore struct {
	store.HistoryStore
}

func (failingStore) Get(context.Context, string) (float64, bool, error) {
	return 0, false, errors.New("disk on fire")
}

func (failingStore) History(context.Context, string, int) ([]store.ScoreRecord, error) {
	return nil, errors.New("disk on fire")
}

func TestStoreFailuresAreInternalErrors(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Store = failingStore{HistoryStore: store.NewMemoryStore()}
	})

	for _, path := range []string{
		"/api/projects/proj_1/health",
		"/api/projects/proj_1/history",
		"/api/projects/health",
	} {
		w := env.get(path)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Contains(t, w.Body.String(), `"category":"internal"`, path)
	}
	// the portfolio fan-out fails once per project
	assert.Equal(t, int64(5), env.metrics.StoreErrors)
}

func TestRateLimitedAPI(t *testing.T) {
	limiter := ratelimit.NewRateLimiter(nil, ratelimit.Config{IPLimitPerMin: 2}, nil)
	defer limiter.Close()

	env := newTestEnv(t, func(d *Deps) { d.Limiter = limiter })

	assert.Equal(t, http.StatusOK, env.get("/api/projects").Code)
	assert.Equal(t, http.StatusOK, env.get("/api/projects/proj_1").Code)

	w := env.get("/api/projects")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"rate_limit"`)

	assert.Equal(t, http.StatusOK, env.get("/health").Code)
}

func TestProjectListIsCached(t *testing.T) {
	c := cache.NewCache(time.Minute)
	defer c.Close()

	env := newTestEnv(t, func(d *Deps) { d.Cache = c })

	first := env.get("/api/projects")
	second := env.get("/api/projects")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	assert.Empty(t, env.get("/api/projects/proj_1").Header().Get("X-Cache"))
	assert.Equal(t, int64(1), env.metrics.CacheHits)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Stats = map[string]StatsFunc{
			"score_store": func() map[string]interface{} { return map[string]interface{}{"backend": "memory"} },
		}
	})

	env.get("/api/projects/proj_1/health/score")

	body := decode[map[string]interface{}](t, env.get("/metrics"))
	require.Contains(t, body, "service")
	assert.Equal(t, map[string]interface{}{"backend": "memory"}, body["score_store"])
	assert.Equal(t, map[string]interface{}{"active_keys": 0.0}, body["locks"])

	service := body["service"].(map[string]interface{})
	assert.Equal(t, 1.0, service["health_computations"])
}

func TestCompressedReports(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Compression = middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/proj_1/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.NewDecoder(zr).Decode(&report))
	assert.Equal(t, "proj_1", report["project_id"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/projects/missing", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3001")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3001", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Origin", "http://evil.example")
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func BenchmarkProjectHealth(b *testing.B) {
	clock := func() time.Time { return fixedNow }
	calc, _ := analysis.NewCalculator(config.Default(), analysis.WithClock(clock))
	router := New(Deps{
		Calculator: calc,
		Provider:   adapters.NewMockProvider(1, clock),
		Logger:     monitoring.NewLoggerTo(io.Discard, slog.LevelError),
	}).Router()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/proj_%d/health", i%3+1), nil))
	}
}
