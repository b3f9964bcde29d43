package sampler

import (
	"context"
	"time"
)

// SystemProbe reads container resource limits and usage counters. Probes
// substitute host-wide values when cgroup files are missing; running outside a
// limited container is a supported degraded mode, not an error.
type SystemProbe interface {
	DetectCgroupVersion(ctx context.Context) CgroupVersion

	ReadResourceLimits(ctx context.Context, version CgroupVersion) ResourceLimits

	ReadContainerCPUUsageNs(ctx context.Context, version CgroupVersion) (int64, error)

	ReadContainerMemoryUsage(ctx context.Context, version CgroupVersion) (int64, error)

	// ReadFilesystemUsage returns nil on failure so the cycle can probe a
	// fallback path.
	ReadFilesystemUsage(ctx context.Context, path string) (*FilesystemUsage, error)
}

// ProcessQuery parameterizes one process enumeration.
type ProcessQuery struct {
	NowMs            int64
	CPULimitCores    float64
	MemoryLimitBytes int64
	// AllowedUIDs restricts the enumeration; nil means every UID passes.
	AllowedUIDs map[int32]struct{}
	// MaxProcesses caps the returned slice after sorting.
	MaxProcesses int
}

// ProcessLister enumerates host processes, attributing CPU and memory per
// process. The state is mutated in place: stamps are overwritten for every
// observed PID and pruned for exited ones.
type ProcessLister interface {
	ListProcessesQuery(ctx context.Context, query ProcessQuery, state *SamplerState) ([]ProcessSample, error)
}

// NameResolver maps UIDs to account names. Resolution failures degrade to the
// decimal UID string, never to an error.
type NameResolver interface {
	ResolveNamesQuery(ctx context.Context, uids []int32) map[string]string
}

// SnapshotStore is the persistence collaborator consumed by the cycle.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ThresholdNotifier receives the cycle's aggregate percentages for alerting.
type ThresholdNotifier interface {
	EvaluateCommand(ctx context.Context, cpuPct, memoryPct, storagePct float64)
}
