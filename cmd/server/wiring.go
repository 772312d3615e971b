package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/adapters"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/ratelimit"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/resilience"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/server"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/store"
)

const mockSeed = 42

func loadScoringConfig(path string) (config.ScoringConfig, error) {
	if path == "" {
		slog.Info("Using default scoring configuration")
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.ScoringConfig{}, fmt.Errorf("failed to load scoring config: %w", err)
	}
	slog.Info("Loaded scoring configuration", "path", path)
	return cfg, nil
}

// openScoreStore builds the configured score store. Remote backends are put
// behind a circuit breaker.
func openScoreStore(cfg config.ServerConfig, redisClient *ratelimit.RedisClient) (store.HistoryStore, server.StatsFunc, error) {
	switch cfg.ScoreStore {
	case config.StoreMemory, "":
		return store.NewMemoryStore(), func() map[string]interface{} {
			return map[string]interface{}{"backend": config.StoreMemory}
		}, nil

	case config.StoreSQLite:
		sqlite, err := store.NewSQLiteStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite score store: %w", err)
		}
		guarded := store.Guard(sqlite, newBreaker())
		return guarded, func() map[string]interface{} {
			return map[string]interface{}{
				"backend": config.StoreSQLite,
				"pool":    sqlite.PoolStats(),
				"breaker": guarded.Breaker().Stats(),
			}
		}, nil

	case config.StoreRedis:
		if !redisClient.IsEnabled() {
			return nil, nil, fmt.Errorf("redis score store requires REDIS_ADDR")
		}
		guarded := store.Guard(store.NewRedisStore(redisClient.GetClient()), newBreaker())
		return guarded, func() map[string]interface{} {
			return map[string]interface{}{
				"backend": config.StoreRedis,
				"pool":    redisClient.GetPoolStats(),
				"breaker": guarded.Breaker().Stats(),
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown score store %q", cfg.ScoreStore)
	}
}

func newBreaker() *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	})
}

func newProvider(cfg config.ServerConfig) (adapters.ProjectProvider, error) {
	if cfg.ProjectsDir == "" {
		slog.Info("Serving mock projects")
		return adapters.NewMockProvider(mockSeed, nil), nil
	}

	provider, err := adapters.NewFileProvider(cfg.ProjectsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	slog.Info("Serving projects from directory", "dir", cfg.ProjectsDir)
	return provider, nil
}
