package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/declue/container-ops/internal/logic/sampler"
)

// All agent configuration env vars use the CONTAINER_OPS_ prefix.
// Duration values support explicit units (e.g. 5m, 40s, 168h).

const (
	// VisibilityAll disables UID filtering of the process list.
	VisibilityAll = sampler.VisibilityAll
	// VisibilityUser restricts the process list to the agent's own UID.
	VisibilityUser = sampler.VisibilityUser
	// VisibilityUserRoot restricts the process list to the agent's own UID and root.
	VisibilityUserRoot = sampler.VisibilityUserRoot
)

const (
	minCollectIntervalSeconds = 1
	maxCollectIntervalSeconds = 3600

	maxThresholdPercent = 100
)

var (
	ErrInvalidInterval   = errors.New("collect interval out of range")
	ErrInvalidProcMax    = errors.New("process cap must be positive")
	ErrInvalidVisibility = errors.New("unknown process visibility mode")
	ErrInvalidThreshold  = errors.New("threshold percent out of range")
	ErrInvalidHistoryMax = errors.New("webhook history cap must be positive")
)

type Config struct {
	// Log level: debug, info, warn, error.
	LogLevel string `env:"CONTAINER_OPS_LOG_LEVEL" envDefault:"info"`
	// Log format: json or text.
	LogFormat string `env:"CONTAINER_OPS_LOG_FORMAT" envDefault:"json"`
	// Port for health/readiness HTTP server.
	HTTPPort string `env:"CONTAINER_OPS_HTTP_PORT" envDefault:"8080"`
	// Port for Prometheus metrics (GET /metrics).
	MetricsPort string `env:"CONTAINER_OPS_METRICS_PORT" envDefault:"9090"`

	// Collection cycle interval in seconds. Valid range 1-3600.
	CollectIntervalSeconds int `env:"CONTAINER_OPS_COLLECT_INTERVAL" envDefault:"5"`
	// Maximum number of processes retained in a snapshot.
	ProcMax int `env:"CONTAINER_OPS_PROC_MAX" envDefault:"8192"`
	// Process visibility mode: all, user or user+root.
	VisibilityMode string `env:"CONTAINER_OPS_PROC_VISIBILITY" envDefault:"all"`
	// Optional comma-separated UID allow-list; overrides the visibility mode.
	VisibilityUIDs string `env:"CONTAINER_OPS_PROC_VISIBILITY_UIDS"`

	// Mount path probed for storage capacity before falling back to /.
	StoragePath string `env:"CONTAINER_OPS_STORAGE_PATH" envDefault:"/"`
	// Cgroup hierarchy root.
	CgroupRoot string `env:"CONTAINER_OPS_CGROUP_ROOT" envDefault:"/sys/fs/cgroup"`
	// Proc filesystem root.
	ProcRoot string `env:"CONTAINER_OPS_PROC_ROOT" envDefault:"/proc"`
	// Mounts table inspected for cgroup version detection.
	MountsFile string `env:"CONTAINER_OPS_MOUNTS_FILE" envDefault:"/proc/mounts"`
	// Account database scanned for UID to name resolution.
	PasswdFile string `env:"CONTAINER_OPS_PASSWD_FILE" envDefault:"/etc/passwd"`

	// Retention of persisted snapshots.
	SnapshotTTL time.Duration `env:"CONTAINER_OPS_SNAPSHOT_TTL" envDefault:"168h"`

	// Global switch for threshold alerting.
	AlertsEnabled bool `env:"CONTAINER_OPS_ALERTS_ENABLED" envDefault:"false"`
	// Per-resource thresholds in percent, valid range (0,100].
	CPUThresholdPercent     float64 `env:"CONTAINER_OPS_CPU_THRESHOLD"     envDefault:"80"`
	MemoryThresholdPercent  float64 `env:"CONTAINER_OPS_MEMORY_THRESHOLD"  envDefault:"80"`
	StorageThresholdPercent float64 `env:"CONTAINER_OPS_STORAGE_THRESHOLD" envDefault:"80"`

	// Optional JSON file with webhook definitions.
	WebhooksFile string `env:"CONTAINER_OPS_WEBHOOKS_FILE"`
	// Maximum number of retained webhook history entries.
	HistoryMax int `env:"CONTAINER_OPS_WEBHOOK_HISTORY_MAX" envDefault:"100"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CollectInterval returns the collection interval as a duration.
func (c *Config) CollectInterval() time.Duration {
	return time.Duration(c.CollectIntervalSeconds) * time.Second
}

func (c *Config) validate() error {
	if c.CollectIntervalSeconds < minCollectIntervalSeconds ||
		c.CollectIntervalSeconds > maxCollectIntervalSeconds {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, c.CollectIntervalSeconds)
	}

	if c.ProcMax <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProcMax, c.ProcMax)
	}

	switch c.VisibilityMode {
	case VisibilityAll, VisibilityUser, VisibilityUserRoot:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVisibility, c.VisibilityMode)
	}

	for _, threshold := range []float64{
		c.CPUThresholdPercent,
		c.MemoryThresholdPercent,
		c.StorageThresholdPercent,
	} {
		if threshold <= 0 || threshold > maxThresholdPercent {
			return fmt.Errorf("%w: %g", ErrInvalidThreshold, threshold)
		}
	}

	if c.HistoryMax <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHistoryMax, c.HistoryMax)
	}

	return nil
}
