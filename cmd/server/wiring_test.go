package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/project-health-monitor/internal/adapters"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/config"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/ratelimit"
	"github.com/ZanzyTHEbar/project-health-monitor/internal/store"
)

func TestLoadScoringConfig(t *testing.T) {
	cfg, err := loadScoringConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aging_task_threshold_days: 10\n"), 0o644))

	cfg, err = loadScoringConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.AgingTaskThresholdDays)

	_, err = loadScoringConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to load scoring config")
}

func TestOpenScoreStore(t *testing.T) {
	disabled := &ratelimit.RedisClient{}

	t.Run("memory", func(t *testing.T) {
		s, stats, err := openScoreStore(config.ServerConfig{ScoreStore: config.StoreMemory}, disabled)
		require.NoError(t, err)
		assert.IsType(t, &store.MemoryStore{}, s)
		assert.Equal(t, "memory", stats()["backend"])
	})

	t.Run("sqlite is guarded", func(t *testing.T) {
		s, stats, err := openScoreStore(config.ServerConfig{ScoreStore: config.StoreSQLite, DataDir: t.TempDir()}, disabled)
		require.NoError(t, err)
		defer s.(io.Closer).Close()

		require.IsType(t, &store.GuardedStore{}, s)
		require.NoError(t, s.Put(context.Background(), "proj_1", 55))

		got := stats()
		assert.Equal(t, "sqlite", got["backend"])
		assert.Contains(t, got, "pool")
		assert.Equal(t, "closed", got["breaker"].(map[string]interface{})["state"])
	})

	t.Run("redis requires a connection", func(t *testing.T) {
		_, _, err := openScoreStore(config.ServerConfig{ScoreStore: config.StoreRedis}, disabled)
		assert.ErrorContains(t, err, "REDIS_ADDR")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, _, err := openScoreStore(config.ServerConfig{ScoreStore: "etcd"}, disabled)
		assert.ErrorContains(t, err, `unknown score store "etcd"`)
	})
}

func TestNewProvider(t *testing.T) {
	p, err := newProvider(config.ServerConfig{})
	require.NoError(t, err)
	assert.IsType(t, &adapters.MockProvider{}, p)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.json"), []byte(`{"id":"alpha","name":"Alpha"}`), 0o644))

	p, err = newProvider(config.ServerConfig{ProjectsDir: dir})
	require.NoError(t, err)

	project, err := p.GetProject(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", project.Name)

	_, err = newProvider(config.ServerConfig{ProjectsDir: filepath.Join(dir, "missing")})
	assert.ErrorContains(t, err, "failed to load projects")
}
