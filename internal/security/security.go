package security

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/project-health-monitor/internal/errors"
)

const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

var projectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ErrInvalidProjectID is returned for malformed project identifiers
var ErrInvalidProjectID = errors.New("invalid project id")

// SecurityConfig holds security configuration
type SecurityConfig struct {
	MaxIDLength    int           `json:"max_id_length"`
	AllowedOrigins []string      `json:"allowed_origins"`
	TrustedProxies []string      `json:"trusted_proxies"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxIDLength:    128,
		AllowedOrigins: []string{"http://localhost:3001", "http://127.0.0.1:3001"},
		TrustedProxies: []string{"127.0.0.1", "::1"},
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware bundles the request hardening middleware
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	if config.MaxIDLength <= 0 {
		config.MaxIDLength = DefaultSecurityConfig().MaxIDLength
	}
	return &SecurityMiddleware{config: config}
}

// Config returns the active configuration
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

// ValidateProjectID checks a project identifier taken from the URL
func (sm *SecurityMiddleware) ValidateProjectID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidProjectID)
	}
	if len(id) > sm.config.MaxIDLength {
		return fmt.Errorf("%w: exceeds maximum length of %d characters", ErrInvalidProjectID, sm.config.MaxIDLength)
	}
	if strings.Contains(id, "\x00") || !utf8.ValidString(id) {
		return fmt.Errorf("%w: contains invalid characters", ErrInvalidProjectID)
	}
	if strings.Contains(id, "..") || !projectIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidProjectID, id)
	}
	return nil
}

// ProjectIDGuard rejects requests whose :id parameter is malformed
func (sm *SecurityMiddleware) ProjectIDGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := c.Params.Get("id")
		if !ok {
			c.Next()
			return
		}

		if err := sm.ValidateProjectID(id); err != nil {
			_ = c.Error(apperrors.NewValidationError("Invalid project id", err.Error()))
			c.Abort()
			return
		}

		c.Next()
	}
}

// SecurityHeaders adds security headers to responses. The swagger UI keeps
// its own content policy.
func (sm *SecurityMiddleware) SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if !strings.HasPrefix(c.Request.URL.Path, "/swagger") {
			c.Header("Content-Security-Policy", apiContentSecurityPolicy)
		}

		if sm.config.EnableHSTS || c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sm.config.RequestTimeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

		c.Next()
	}
}
