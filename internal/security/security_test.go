package security

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/project-health-monitor/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestValidateProjectID(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"mock id", "proj_1", false},
		{"dotted and dashed", "team-a.project_2", false},
		{"uuid", "9b2f6c1e-8a7d-4c1b-9a39-1f0d2b7e6a55", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"null byte", "proj\x00", true},
		{"invalid utf8", "proj\xff", true},
		{"path traversal", "a..b", true},
		{"leading dot", ".hidden", true},
		{"script tag", "<script>", true},
		{"whitespace", "proj 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidateProjectID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProjectID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProjectIDGuard(t *testing.T) {
	sm := NewSecurityMiddleware(SecurityConfig{MaxIDLength: 8})

	router := gin.New()
	router.Use(apperrors.ErrorHandler())
	router.GET("/api/projects/:id", sm.ProjectIDGuard(), func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	})

	ok := httptest.NewRecorder()
	router.ServeHTTP(ok, httptest.NewRequest(http.MethodGet, "/api/projects/proj_1", nil))
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "proj_1", ok.Body.String())

	bad := httptest.NewRecorder()
	router.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/api/projects/much-too-long-id", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Contains(t, bad.Body.String(), `"category":"validation"`)
}

func TestSecurityHeaders(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	router := gin.New()
	router.Use(sm.SecurityHeaders())
	router.GET("/api/projects", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/swagger/index.html", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, apiContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.TLS = &tls.ConnectionState{}
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRequestTimeout(t *testing.T) {
	sm := NewSecurityMiddleware(SecurityConfig{RequestTimeout: 2 * time.Second})

	var deadline time.Time
	var hasDeadline bool

	router := gin.New()
	router.Use(sm.RequestTimeout())
	router.GET("/", func(c *gin.Context) {
		deadline, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)
	assert.Equal(t, "2", w.Header().Get("X-Timeout"))
}

func TestRequestTimeout_Disabled(t *testing.T) {
	sm := NewSecurityMiddleware(SecurityConfig{})

	router := gin.New()
	router.Use(sm.RequestTimeout())
	router.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.False(t, ok)
		assert.NoError(t, c.Request.Context().Err())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusOK, w.Code)
}
