// Package server exposes the health engine over HTTP.
package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/adapters"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/analysis"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/cache"
	apperrors "github.com/ZanzyTHEbar/project-health-monitor/internal/errors"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/middleware"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/monitoring"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/ratelimit"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/security"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/store"
)

const (
	// ServiceName is reported by the root endpoint
	ServiceName = "AI Project Health Monitor API"

	requestIDHeader  = "X-Request-ID"
	portfolioWorkers = 4
)

// StatsFunc contributes a named section to the metrics endpoint
type StatsFunc func() map[string]interface{}

// Deps are the collaborators the server is built from. Cache, Limiter,
// Compression and Stats are optional.
type Deps struct {
	Calculator  *analysis.Calculator
	Provider    adapters.ProjectProvider
	Store       store.HistoryStore
	Metrics     *monitoring.Metrics
	Logger      *monitoring.Logger
	Cache       *cache.Cache
	Limiter     *ratelimit.RateLimiter
	Compression *middleware.CompressionMiddleware
	Security    security.SecurityConfig
	Version     string
	Stats       map[string]StatsFunc
}

// Server holds the HTTP handlers of the service
type Server struct {
	calc        *analysis.Calculator
	provider    adapters.ProjectProvider
	store       store.HistoryStore
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	cache       *cache.Cache
	limiter     *ratelimit.RateLimiter
	compression *middleware.CompressionMiddleware
	security    *security.SecurityMiddleware
	locks       *store.KeyedLocker
	version     string
	stats       map[string]StatsFunc
}

// New creates a Server
func New(d Deps) *Server {
	if d.Metrics == nil {
		d.Metrics = monitoring.NewMetrics()
	}
	if d.Logger == nil {
		d.Logger = monitoring.NewLogger(slog.LevelInfo)
	}
	if d.Store == nil {
		d.Store = store.NewMemoryStore()
	}
	if d.Version == "" {
		d.Version = "1.0.0"
	}

	return &Server{
		calc:        d.Calculator,
		provider:    d.Provider,
		store:       d.Store,
		metrics:     d.Metrics,
		logger:      d.Logger,
		cache:       d.Cache,
		limiter:     d.Limiter,
		compression: d.Compression,
		security:    security.NewSecurityMiddleware(d.Security),
		locks:       store.NewKeyedLocker(),
		version:     d.Version,
		stats:       d.Stats,
	}
}

// Router builds the gin engine with middleware and routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	if proxies := s.security.Config().TrustedProxies; len(proxies) > 0 {
		if err := r.SetTrustedProxies(proxies); err != nil {
			s.logger.Warn("Ignoring invalid trusted proxies", "error", err)
		}
	}

	r.Use(requestID())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(corsMiddleware(s.security.Config().AllowedOrigins))
	r.Use(s.security.SecurityHeaders())
	r.Use(s.security.RequestTimeout())
	if s.compression != nil {
		r.Use(s.compression.Handler())
	}

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	if s.limiter != nil {
		api.Use(s.limiter.IPRateLimitMiddleware())
	}
	if s.cache != nil {
		api.Use(s.cache.Middleware(s.metrics, func(c *gin.Context) bool {
			return c.FullPath() == "/api/projects"
		}))
	}

	api.GET("/projects", s.handleListProjects)
	api.GET("/projects/health", s.handlePortfolioHealth)

	project := api.Group("/projects/:id", s.security.ProjectIDGuard())
	project.GET("", s.handleGetProject)
	project.GET("/health", s.handleProjectHealth)
	project.GET("/health/score", s.handleHealthScore)
	project.GET("/history", s.handleHistory)

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader, "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			break
		}
		cfg.AllowOrigins = append(cfg.AllowOrigins, strings.TrimSuffix(o, "/"))
	}
	if !cfg.AllowAllOrigins && len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = security.DefaultSecurityConfig().AllowedOrigins
	}

	return cors.New(cfg)
}
