package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a scoring configuration that must not be used
var ErrInvalidConfig = errors.New("invalid scoring configuration")

const weightTolerance = 1e-6

// DimensionWeights holds the weight of each health dimension; they must sum to 1.0
type DimensionWeights struct {
	DeliveryHealth         float64 `json:"delivery_health" yaml:"delivery_health" toml:"delivery_health"`
	WorkloadBalance        float64 `json:"workload_balance" yaml:"workload_balance" toml:"workload_balance"`
	CommunicationSentiment float64 `json:"communication_sentiment" yaml:"communication_sentiment" toml:"communication_sentiment"`
	RiskSignals            float64 `json:"risk_signals" yaml:"risk_signals" toml:"risk_signals"`
	MomentumTrend          float64 `json:"momentum_trend" yaml:"momentum_trend" toml:"momentum_trend"`
}

// Sum returns the total of all weights
func (w DimensionWeights) Sum() float64 {
	return w.DeliveryHealth + w.WorkloadBalance + w.CommunicationSentiment + w.RiskSignals + w.MomentumTrend
}

// HealthThresholds are the lower bounds of the healthy and watch bands
type HealthThresholds struct {
	Healthy float64 `json:"healthy" yaml:"healthy" toml:"healthy"`
	Watch   float64 `json:"watch" yaml:"watch" toml:"watch"`
}

// ScoringConfig is the configuration of the health engine. It is fixed at
// engine construction.
type ScoringConfig struct {
	DimensionWeights               DimensionWeights `json:"dimension_weights" yaml:"dimension_weights" toml:"dimension_weights"`
	HealthThresholds               HealthThresholds `json:"health_thresholds" yaml:"health_thresholds" toml:"health_thresholds"`
	AgingTaskThresholdDays         int              `json:"aging_task_threshold_days" yaml:"aging_task_threshold_days" toml:"aging_task_threshold_days"`
	OverloadThresholdTasks         int              `json:"overload_threshold_tasks" yaml:"overload_threshold_tasks" toml:"overload_threshold_tasks"`
	UnderutilizationThresholdTasks int              `json:"underutilization_threshold_tasks" yaml:"underutilization_threshold_tasks" toml:"underutilization_threshold_tasks"`
}

// Default returns the default scoring configuration.
func Default() ScoringConfig {
	return ScoringConfig{
		DimensionWeights: DimensionWeights{
			DeliveryHealth:         0.30,
			WorkloadBalance:        0.20,
			CommunicationSentiment: 0.25,
			RiskSignals:            0.15,
			MomentumTrend:          0.10,
		},
		HealthThresholds: HealthThresholds{
			Healthy: 80,
			Watch:   60,
		},
		AgingTaskThresholdDays:         7,
		OverloadThresholdTasks:         5,
		UnderutilizationThresholdTasks: 1,
	}
}

// Validate checks the invariants of the configuration. Every failure wraps
// ErrInvalidConfig.
func (c ScoringConfig) Validate() error {
	w := c.DimensionWeights
	weights := map[string]float64{
		"delivery_health":         w.DeliveryHealth,
		"workload_balance":        w.WorkloadBalance,
		"communication_sentiment": w.CommunicationSentiment,
		"risk_signals":            w.RiskSignals,
		"momentum_trend":          w.MomentumTrend,
	}
	for _, key := range []string{"delivery_health", "workload_balance", "communication_sentiment", "risk_signals", "momentum_trend"} {
		v := weights[key]
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: dimension_weights.%s must be within [0, 1], got %v", ErrInvalidConfig, key, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: dimension_weights must sum to 1.0, got %.6f", ErrInvalidConfig, sum)
	}

	t := c.HealthThresholds
	if !isFinite(t.Healthy) || !isFinite(t.Watch) {
		return fmt.Errorf("%w: health_thresholds must be finite numbers, got healthy=%v watch=%v", ErrInvalidConfig, t.Healthy, t.Watch)
	}
	if t.Healthy < 0 || t.Watch < 0 {
		return fmt.Errorf("%w: health_thresholds must not be negative", ErrInvalidConfig)
	}
	if t.Watch > t.Healthy {
		return fmt.Errorf("%w: health_thresholds.watch (%v) exceeds health_thresholds.healthy (%v)", ErrInvalidConfig, t.Watch, t.Healthy)
	}

	if c.AgingTaskThresholdDays < 0 {
		return fmt.Errorf("%w: aging_task_threshold_days must not be negative", ErrInvalidConfig)
	}
	if c.OverloadThresholdTasks < 0 {
		return fmt.Errorf("%w: overload_threshold_tasks must not be negative", ErrInvalidConfig)
	}
	if c.UnderutilizationThresholdTasks < 0 {
		return fmt.Errorf("%w: underutilization_threshold_tasks must not be negative", ErrInvalidConfig)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Load reads a scoring configuration file on top of the defaults. The format
// is chosen by extension: .json, .yaml/.yml or .toml. An empty path returns
// the defaults.
func Load(path string) (ScoringConfig, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read scoring config %s: %w", path, err)
	}

	if err := Decode(filepath.Ext(path), data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse scoring config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses data in the format named by ext into cfg
func Decode(ext string, data []byte, cfg *ScoringConfig) error {
	switch strings.ToLower(ext) {
	case ".json":
		return json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}
