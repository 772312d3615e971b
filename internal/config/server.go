package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Score store backends
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// ServerConfig is the runtime configuration of the HTTP service
type ServerConfig struct {
	Port              string
	ScoringConfigPath string
	DataDir           string
	ProjectsDir       string
	ScoreStore        string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RateLimitPerMin   int
	CORSOrigins       []string
	LogLevel          slog.Level
}

// FromEnv reads the server configuration from environment variables
func FromEnv() ServerConfig {
	return ServerConfig{
		Port:              getEnvOrDefault("PORT", "8001"),
		ScoringConfigPath: os.Getenv("SCORING_CONFIG"),
		DataDir:           getEnvOrDefault("DATA_DIR", "./data"),
		ProjectsDir:       os.Getenv("PROJECTS_DIR"),
		ScoreStore:        strings.ToLower(getEnvOrDefault("SCORE_STORE", StoreMemory)),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MIN", 120),
		CORSOrigins:       splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3001,http://127.0.0.1:3001")),
		LogLevel:          parseLevel(os.Getenv("LOG_LEVEL")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Ignoring invalid integer environment value", "key", key, "value", raw)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
