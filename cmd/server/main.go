package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/analysis"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/cache"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	apperrors "github.com/ZanzyTHEbar/project-health-monitor/internal/errors"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/middleware"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/monitoring"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/ratelimit"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/resilience"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/security"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/server"
)

const (
	version         = "1.0.0"
	projectCacheTTL = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
)

// @title Project Health Monitor API
// @version 1.0.0
// @description Scores project snapshots across five health dimensions and reports risks and recommendations.
// @BasePath /
func main() {
	cfg := config.FromEnv()

	logger := monitoring.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger.Logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func run(cfg config.ServerConfig, logger *monitoring.Logger) error {
	scoring, err := loadScoringConfig(cfg.ScoringConfigPath)
	if err != nil {
		return err
	}

	calc, err := analysis.NewCalculator(scoring)
	if err != nil {
		return fmt.Errorf("failed to create calculator: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, resilience.DefaultRetryConfig())
	if err != nil {
		if cfg.ScoreStore == config.StoreRedis {
			return err
		}
		slog.Warn("Redis unavailable, continuing with in-memory fallbacks", "error", err)
	}
	defer apperrors.SafeClose(redisClient, "redis client")

	scores, storeStats, err := openScoreStore(cfg, redisClient)
	if err != nil {
		return err
	}
	if closer, ok := scores.(io.Closer); ok {
		defer apperrors.SafeClose(closer, "score store")
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	metrics := monitoring.NewMetrics()

	projectCache := cache.NewCache(projectCacheTTL)
	defer apperrors.SafeClose(projectCache, "project cache")

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{IPLimitPerMin: cfg.RateLimitPerMin}, metrics)
	defer apperrors.SafeClose(limiter, "rate limiter")

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = cfg.CORSOrigins
	securityConfig.EnableHSTS = os.Getenv("ENABLE_HSTS") == "true"

	srv := server.New(server.Deps{
		Calculator:  calc,
		Provider:    provider,
		Store:       scores,
		Metrics:     metrics,
		Logger:      logger,
		Cache:       projectCache,
		Limiter:     limiter,
		Compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		Security:    securityConfig,
		Version:     version,
		Stats:       map[string]server.StatsFunc{"score_store": storeStats},
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.SystemLogger("server_start", fmt.Sprintf("listening on :%s with %s score store", cfg.Port, cfg.ScoreStore))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
