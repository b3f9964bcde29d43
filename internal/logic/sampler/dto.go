package sampler

// CgroupVersion identifies the cgroup hierarchy layout of the host.
type CgroupVersion int

const (
	CgroupV1 CgroupVersion = 1
	CgroupV2 CgroupVersion = 2
)

// ResourceLimits is the container's resource entitlement, derived once per cycle
// from cgroup control files with host-wide fallbacks.
type ResourceLimits struct {
	CPULimitCores    float64 `json:"cpuLimitCores"`
	MemoryLimitBytes int64   `json:"memoryLimitBytes"`
}

// ContainerUsage holds container-level utilization for one cycle. All percent
// fields are clamped to [0,100].
type ContainerUsage struct {
	CPUUsagePercent     float64 `json:"cpuUsagePercent"`
	MemoryUsageBytes    int64   `json:"memoryUsageBytes"`
	MemoryUsagePercent  float64 `json:"memoryUsagePercent"`
	StorageTotalBytes   int64   `json:"storageTotalBytes"`
	StorageUsedBytes    int64   `json:"storageUsedBytes"`
	StorageUsagePercent float64 `json:"storageUsagePercent"`
}

// FilesystemUsage is the block-device usage of one mount path.
type FilesystemUsage struct {
	TotalBytes int64 `json:"totalBytes"`
	UsedBytes  int64 `json:"usedBytes"`
}

// ProcessSample is one process's attribution for a cycle. CPUPercent is nil on
// the first observation of a PID; callers must not render that as a measured 0%.
type ProcessSample struct {
	PID           int32    `json:"pid"`
	PPID          int32    `json:"ppid"`
	UID           *int32   `json:"uid,omitempty"`
	Command       string   `json:"command"`
	CPUPercent    *float64 `json:"cpuPercent,omitempty"`
	MemoryBytes   int64    `json:"memoryBytes"`
	MemoryPercent *float64 `json:"memoryPercent,omitempty"`
}

// MetricsSnapshot is the immutable result of one collection cycle. Processes are
// ordered by CPU percent descending, ties broken by memory bytes descending.
type MetricsSnapshot struct {
	TimestampMs int64             `json:"timestampMs"`
	Limits      ResourceLimits    `json:"limits"`
	Usage       ContainerUsage    `json:"usage"`
	UIDNames    map[string]string `json:"uidNames"`
	Processes   []ProcessSample   `json:"processes"`
}

// ClampPercent bounds a percentage to [0,100]. Raw deltas can compute outside
// that range under clock skew or limit changes mid-interval.
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}
