package sampler

const (
	// snapshotKeyPrefix prefixes the persisted snapshot key; the suffix is the
	// cycle timestamp in milliseconds.
	snapshotKeyPrefix = "metrics:"

	// cpuLimitEpsilon guards the division when a cgroup reports a zero or
	// near-zero CPU quota.
	cpuLimitEpsilon = 1e-9

	// rootPath is the final storage-capacity fallback.
	rootPath = "/"
)
