// Package config provides configuration loading and validation for the
// cognitive kernel.
//
// Configuration file: /etc/cogkernel/config.yaml (default)
// Schema version: 1
//
// Validation:
//   - All required fields must be present.
//   - Numeric ranges enforced (load weights sum to ~1; pressure thresholds,
//     grounding_floor and the calibration EMA decay in [0,1]; the
//     fabricated threshold below the grounded threshold; window, count and
//     capacity settings at their minimums).
//   - Invalid config on startup: the kernel refuses to start.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version, GitCommit, BuildTime are injected by the build via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Config is the root configuration structure for the cognitive kernel.
// All fields have defaults; see Defaults() for values.
type Config struct {
	SchemaVersion string `yaml:"schema_version"`
	NodeID        string `yaml:"node_id"`

	Router        RouterConfig        `yaml:"router"`
	Load          LoadConfig          `yaml:"load"`
	Grounding     GroundingConfig     `yaml:"grounding"`
	Calibration   CalibrationConfig   `yaml:"calibration"`
	NoiseGate     NoiseGateConfig     `yaml:"noise_gate"`
	Memory        MemoryConfig        `yaml:"memory"`
	Timeouts      TimeoutConfig       `yaml:"timeouts"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// RouterConfig configures the Activation Router.
type RouterConfig struct {
	// PressureModerateThreshold triggers a one-level pipeline downgrade.
	PressureModerateThreshold float64 `yaml:"pressure_moderate_threshold"`
	// PressureHighThreshold triggers a two-level pipeline downgrade.
	PressureHighThreshold float64 `yaml:"pressure_high_threshold"`
	// CacheTTL is how long a cached ActivationMap remains valid.
	CacheTTL time.Duration `yaml:"cache_ttl_seconds"`
	// CacheBackend selects the decision-cache implementation: "memory" or
	// "redis".
	CacheBackend string `yaml:"cache_backend"`
	RedisAddr    string `yaml:"redis_addr"`
}

// LoadConfig configures the Cognitive Load Monitor.
type LoadConfig struct {
	ComputeWeight       float64 `yaml:"load_compute_weight"`
	TimeWeight          float64 `yaml:"load_time_weight"`
	BreadthWeight       float64 `yaml:"load_breadth_weight"`
	LoopWindow          int     `yaml:"loop_window"`
	LoopRepeatThreshold int     `yaml:"loop_repeat_threshold"`
	GoalDriftThreshold  float64 `yaml:"goal_drift_threshold"`
	AbortAggregate      float64 `yaml:"abort_aggregate_threshold"`
	SimplifyAggregate   float64 `yaml:"simplify_aggregate_threshold"`
}

// GroundingConfig configures the Hallucination Monitor.
type GroundingConfig struct {
	GroundedThreshold   float64            `yaml:"grounded_threshold"`
	FabricatedThreshold float64            `yaml:"fabricated_threshold"`
	GradeWeights        map[string]float64 `yaml:"grade_weights"`
}

// CalibrationConfig configures the Confidence Calibrator.
type CalibrationConfig struct {
	OverconfidenceThreshold float64 `yaml:"overconfidence_threshold"`
	EMADecay                float64 `yaml:"calibration_ema_decay"`
	MaxSamples              int     `yaml:"calibration_max_samples"`
}

// NoiseGateConfig configures the Noise Gate.
type NoiseGateConfig struct {
	GroundingFloor  float64 `yaml:"grounding_floor"`
	ConfidenceFloor float64 `yaml:"confidence_floor"`
	RetryBudget     int     `yaml:"retry_budget"`
}

// MemoryConfig configures Short-Term Memory.
type MemoryConfig struct {
	RingBufferCapacity int           `yaml:"ring_buffer_capacity"`
	EntityTTL          time.Duration `yaml:"entity_ttl_seconds"`
	EntityMaxEntries   int           `yaml:"entity_max_entries"`
	ContextWindowK     int           `yaml:"context_window_k"`
}

// TimeoutConfig configures per-phase wall-clock budgets.
type TimeoutConfig struct {
	GateIn       time.Duration `yaml:"gate_in_seconds"`
	ExecuteCycle time.Duration `yaml:"execute_cycle_seconds"`
	GateOut      time.Duration `yaml:"gate_out_seconds"`
}

// StorageConfig configures the BoltDB-backed persistence layer.
type StorageConfig struct {
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// ObservabilityConfig configures metrics and logging.
type ObservabilityConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// DefaultDBPath is the default BoltDB file location.
const DefaultDBPath = "/var/lib/cogkernel/cogkernel.db"

// Defaults returns a Config populated with every default named in the
// specification's configuration surface.
func Defaults() Config {
	hostname, _ := os.Hostname()
	return Config{
		SchemaVersion: "1",
		NodeID:        hostname,
		Router: RouterConfig{
			PressureModerateThreshold: 0.6,
			PressureHighThreshold:     0.8,
			CacheTTL:                  60 * time.Second,
			CacheBackend:              "memory",
		},
		Load: LoadConfig{
			ComputeWeight:       0.5,
			TimeWeight:          0.3,
			BreadthWeight:       0.2,
			LoopWindow:          10,
			LoopRepeatThreshold: 3,
			GoalDriftThreshold:  0.5,
			AbortAggregate:      0.95,
			SimplifyAggregate:   0.8,
		},
		Grounding: GroundingConfig{
			GroundedThreshold:   0.5,
			FabricatedThreshold: 0.3,
			GradeWeights: map[string]float64{
				"GROUNDED":   1.0,
				"INFERRED":   0.5,
				"FABRICATED": 0.0,
			},
		},
		Calibration: CalibrationConfig{
			OverconfidenceThreshold: 0.15,
			EMADecay:                0.1,
			MaxSamples:              100,
		},
		NoiseGate: NoiseGateConfig{
			GroundingFloor:  0.8,
			ConfidenceFloor: 0.8,
			RetryBudget:     2,
		},
		Memory: MemoryConfig{
			RingBufferCapacity: 100,
			EntityTTL:          60 * time.Second,
			EntityMaxEntries:   1000,
			ContextWindowK:     10,
		},
		Timeouts: TimeoutConfig{
			GateIn:       10 * time.Second,
			ExecuteCycle: 60 * time.Second,
			GateOut:      30 * time.Second,
		},
		Storage: StorageConfig{
			DBPath:        DefaultDBPath,
			RetentionDays: 30,
		},
		Observability: ObservabilityConfig{
			MetricsAddr: "127.0.0.1:9091",
			LogLevel:    "info",
			LogFormat:   "json",
		},
	}
}

// Load reads and validates a config file from the given path, merging
// file values over the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse %q: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks all config fields and aggregates every violation found
// into a single joined error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.SchemaVersion != "1" {
		errs = append(errs, fmt.Errorf("schema_version must be \"1\", got %q", cfg.SchemaVersion))
	}
	if cfg.NodeID == "" {
		errs = append(errs, errors.New("node_id must not be empty"))
	}

	r := cfg.Router
	if r.PressureModerateThreshold < 0 || r.PressureModerateThreshold > 1 {
		errs = append(errs, fmt.Errorf("router.pressure_moderate_threshold must be in [0,1], got %f", r.PressureModerateThreshold))
	}
	if r.PressureHighThreshold < r.PressureModerateThreshold || r.PressureHighThreshold > 1 {
		errs = append(errs, fmt.Errorf("router.pressure_high_threshold must be in [pressure_moderate_threshold,1], got %f", r.PressureHighThreshold))
	}
	if r.CacheBackend != "memory" && r.CacheBackend != "redis" {
		errs = append(errs, fmt.Errorf("router.cache_backend must be \"memory\" or \"redis\", got %q", r.CacheBackend))
	}
	if r.CacheBackend == "redis" && r.RedisAddr == "" {
		errs = append(errs, errors.New("router.redis_addr is required when cache_backend is \"redis\""))
	}

	l := cfg.Load
	wsum := l.ComputeWeight + l.TimeWeight + l.BreadthWeight
	if wsum < 0.99 || wsum > 1.01 {
		errs = append(errs, fmt.Errorf("load weights must sum to 1.0, got %f", wsum))
	}
	if l.LoopWindow < 2 {
		errs = append(errs, fmt.Errorf("load.loop_window must be >= 2, got %d", l.LoopWindow))
	}
	if l.LoopRepeatThreshold < 2 {
		errs = append(errs, fmt.Errorf("load.loop_repeat_threshold must be >= 2, got %d", l.LoopRepeatThreshold))
	}

	g := cfg.Grounding
	if g.FabricatedThreshold >= g.GroundedThreshold {
		errs = append(errs, fmt.Errorf("grounding.fabricated_threshold must be < grounded_threshold, got %f >= %f", g.FabricatedThreshold, g.GroundedThreshold))
	}

	c := cfg.Calibration
	if c.EMADecay < 0 || c.EMADecay > 1 {
		errs = append(errs, fmt.Errorf("calibration.calibration_ema_decay must be in [0,1], got %f", c.EMADecay))
	}
	if c.MaxSamples < 1 {
		errs = append(errs, fmt.Errorf("calibration.calibration_max_samples must be >= 1, got %d", c.MaxSamples))
	}

	n := cfg.NoiseGate
	if n.GroundingFloor < 0 || n.GroundingFloor > 1 {
		errs = append(errs, fmt.Errorf("noise_gate.grounding_floor must be in [0,1], got %f", n.GroundingFloor))
	}
	if n.RetryBudget < 0 {
		errs = append(errs, fmt.Errorf("noise_gate.retry_budget must be >= 0, got %d", n.RetryBudget))
	}

	m := cfg.Memory
	if m.RingBufferCapacity < 1 {
		errs = append(errs, fmt.Errorf("memory.ring_buffer_capacity must be >= 1, got %d", m.RingBufferCapacity))
	}
	if m.EntityMaxEntries < 1 {
		errs = append(errs, fmt.Errorf("memory.entity_max_entries must be >= 1, got %d", m.EntityMaxEntries))
	}

	if cfg.Storage.DBPath == "" {
		errs = append(errs, errors.New("storage.db_path must not be empty"))
	}
	if cfg.Storage.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("storage.retention_days must be >= 1, got %d", cfg.Storage.RetentionDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %w", errors.Join(errs...))
	}
	return nil
}
