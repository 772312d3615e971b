package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/adapters"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
)

func TestConstructors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		message  string
	}{
		{"validation", NewValidationError("bad input", "field"), CategoryValidation, http.StatusBadRequest, "[VALIDATION_ERROR] bad input"},
		{"not found", NewNotFoundError("project", "proj_9", nil), CategoryNotFound, http.StatusNotFound, "[NOT_FOUND] project not found"},
		{"rate limit", NewRateLimitError("30s"), CategoryRateLimit, http.StatusTooManyRequests, "[RATE_LIMIT_EXCEEDED] Rate limit exceeded"},
		{"configuration", NewConfigurationError("weights", nil), CategoryConfiguration, http.StatusInternalServerError, "[CONFIGURATION_ERROR] Configuration error"},
		{"internal", NewInternalError("boom", nil), CategoryInternal, http.StatusInternalServerError, "[INTERNAL_ERROR] Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.message, tt.err.Error())
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestNewInternalError_CapturesStackInTestMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	err := NewInternalError("boom", errors.New("cause"))
	assert.NotEmpty(t, err.StackTrace)
	assert.EqualError(t, errors.Unwrap(err), "cause")
}

func TestToAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		status   int
	}{
		{"project not found", fmt.Errorf("%w: proj_9", adapters.ErrProjectNotFound), CategoryNotFound, http.StatusNotFound},
		{"invalid project", fmt.Errorf("%w: task t1: unknown status", adapters.ErrInvalidProject), CategoryValidation, http.StatusBadRequest},
		{"invalid config", fmt.Errorf("%w: weights", config.ErrInvalidConfig), CategoryConfiguration, http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("handler: %w", NewRateLimitError("1s")), CategoryRateLimit, http.StatusTooManyRequests},
		{"bare errbuilder", errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("x"), CategoryInternal, http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, CategoryInternal, http.StatusInternalServerError},
		{"anything else", errors.New("disk full"), CategoryInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestToAppError_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("%w: proj_9", adapters.ErrProjectNotFound)
	appErr := ToAppError(cause)
	assert.ErrorIs(t, appErr, adapters.ErrProjectNotFound)
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/missing", func(c *gin.Context) {
		c.Set("request_id", "req-1")
		_ = c.Error(fmt.Errorf("%w: proj_9", adapters.ErrProjectNotFound))
	})
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["category"])
	assert.Equal(t, "req-1", body["request_id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryHandler())
	router.GET("/panic", func(c *gin.Context) {
		panic("scorer exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"internal"`)
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ignored"))

	base := errors.New("base")
	wrapped := WrapError(base, "loading %s", "proj_1")
	assert.EqualError(t, wrapped, "loading proj_1: base")
	assert.ErrorIs(t, wrapped, base)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestSafeClose(t *testing.T) {
	closed := false
	SafeClose(closerFunc(func() error { closed = true; return errors.New("already closed") }), "store")
	assert.True(t, closed)

	SafeClose(nil, "nothing")
}
