package sampler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/declue/container-ops/internal/infra/metrics"
)

// Options carries the cycle parameters resolved once at startup.
type Options struct {
	ProcMax     int
	AllowedUIDs map[int32]struct{}
	StoragePath string
	SnapshotTTL time.Duration
	// Clock is overridable in tests; defaults to time.Now.
	Clock func() time.Time
}

// Service owns the collection cycle: probe the system, enumerate processes,
// assemble a snapshot, persist it and hand the aggregates to the notifier.
// It is the exclusive owner of the SamplerState.
type Service struct {
	logger   *slog.Logger
	probe    SystemProbe
	lister   ProcessLister
	resolver NameResolver
	store    SnapshotStore
	notifier ThresholdNotifier
	state    *SamplerState
	opts     Options

	mu               sync.RWMutex
	lastCycleEndTime time.Time
}

// New creates the sampler service.
func New(
	logger *slog.Logger,
	probe SystemProbe,
	lister ProcessLister,
	resolver NameResolver,
	store SnapshotStore,
	notifier ThresholdNotifier,
	opts Options,
) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Service{
		logger:   logger,
		probe:    probe,
		lister:   lister,
		resolver: resolver,
		store:    store,
		notifier: notifier,
		state:    NewSamplerState(),
		opts:     opts,
	}
}

// Name returns the name of the sampler component.
func (s *Service) Name() string {
	return "metrics-sampler"
}

// RunCycle executes one collection cycle and absorbs cycle-fatal errors: the
// error is logged and counted, the process keeps running and the state keeps
// its last-good values for the next tick.
func (s *Service) RunCycle(ctx context.Context) {
	if err := s.CollectCommand(ctx); err != nil {
		s.logger.ErrorContext(ctx, "collection cycle failed", "reason", err)
		metrics.RecordCollectCycleError()
	}
}

// CollectCommand runs one collection cycle. It must never run concurrently
// with itself; the scheduler's skip guard enforces that.
func (s *Service) CollectCommand(ctx context.Context) error {
	now := s.opts.Clock()
	nowMs := now.UnixMilli()

	version := s.probe.DetectCgroupVersion(ctx)
	limits := s.probe.ReadResourceLimits(ctx, version)
	usage := s.readContainerUsage(ctx, version, limits, nowMs)

	processes, err := s.lister.ListProcessesQuery(ctx, ProcessQuery{
		NowMs:            nowMs,
		CPULimitCores:    limits.CPULimitCores,
		MemoryLimitBytes: limits.MemoryLimitBytes,
		AllowedUIDs:      s.opts.AllowedUIDs,
		MaxProcesses:     s.opts.ProcMax,
	}, s.state)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListProcesses, err)
	}

	snapshot := MetricsSnapshot{
		TimestampMs: nowMs,
		Limits:      limits,
		Usage:       usage,
		UIDNames:    s.resolver.ResolveNamesQuery(ctx, uniqueUIDs(processes)),
		Processes:   processes,
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeSnapshot, err)
	}

	key := snapshotKeyPrefix + strconv.FormatInt(nowMs, 10)
	if err := s.store.PutSnapshot(ctx, key, payload, s.opts.SnapshotTTL); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistSnapshot, err)
	}

	metrics.RecordProcessesSampled(len(processes))

	s.notifier.EvaluateCommand(ctx,
		usage.CPUUsagePercent,
		usage.MemoryUsagePercent,
		usage.StorageUsagePercent,
	)

	s.setLastCycleEndTime(s.opts.Clock())
	metrics.RecordCollectCycle()

	s.logger.DebugContext(ctx, "collection cycle completed",
		"processes", len(processes),
		"cpuPct", usage.CPUUsagePercent,
		"memoryPct", usage.MemoryUsagePercent,
		"storagePct", usage.StorageUsagePercent,
	)

	return nil
}

// LastCycleTime reports when the most recent cycle completed.
func (s *Service) LastCycleTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastCycleEndTime
}

func (s *Service) setLastCycleEndTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastCycleEndTime = t
}

// readContainerUsage computes container-level utilization. Every probe failure
// here is degraded-but-continue: the affected field stays zero.
func (s *Service) readContainerUsage(
	ctx context.Context,
	version CgroupVersion,
	limits ResourceLimits,
	nowMs int64,
) ContainerUsage {
	var usage ContainerUsage

	usageNs, err := s.probe.ReadContainerCPUUsageNs(ctx, version)
	if err != nil {
		s.logger.DebugContext(ctx, "container cpu counter unavailable", "reason", err)
	} else {
		prevNs := s.state.LastContainerUsageNs
		prevMs := s.state.LastContainerTimestampMs

		if prevMs > 0 && nowMs > prevMs && usageNs >= prevNs {
			wallNs := float64(nowMs-prevMs) * float64(time.Millisecond)
			cores := limits.CPULimitCores
			if cores < cpuLimitEpsilon {
				cores = cpuLimitEpsilon
			}

			usage.CPUUsagePercent = ClampPercent(float64(usageNs-prevNs) / wallNs * 100 / cores)
		}

		s.state.LastContainerUsageNs = usageNs
		s.state.LastContainerTimestampMs = nowMs
	}

	memoryUsed, err := s.probe.ReadContainerMemoryUsage(ctx, version)
	if err != nil {
		s.logger.DebugContext(ctx, "container memory counter unavailable", "reason", err)
	} else {
		usage.MemoryUsageBytes = memoryUsed
		if limits.MemoryLimitBytes > 0 {
			usage.MemoryUsagePercent = ClampPercent(
				float64(memoryUsed) / float64(limits.MemoryLimitBytes) * 100,
			)
		}
	}

	fs, err := s.probe.ReadFilesystemUsage(ctx, s.opts.StoragePath)
	if err != nil {
		s.logger.DebugContext(ctx, "storage probe failed",
			"path", s.opts.StoragePath,
			"reason", err,
		)
	}

	if fs == nil && s.opts.StoragePath != rootPath {
		fs, err = s.probe.ReadFilesystemUsage(ctx, rootPath)
		if err != nil {
			s.logger.DebugContext(ctx, "storage probe failed", "path", rootPath, "reason", err)
		}
	}

	if fs != nil {
		usage.StorageTotalBytes = fs.TotalBytes
		usage.StorageUsedBytes = fs.UsedBytes

		if fs.TotalBytes > 0 {
			usage.StorageUsagePercent = ClampPercent(
				float64(fs.UsedBytes) / float64(fs.TotalBytes) * 100,
			)
		}
	}

	return usage
}

func uniqueUIDs(processes []ProcessSample) []int32 {
	seen := make(map[int32]struct{}, len(processes))
	uids := make([]int32, 0, len(processes))

	for i := range processes {
		if processes[i].UID == nil {
			continue
		}

		uid := *processes[i].UID
		if _, ok := seen[uid]; ok {
			continue
		}

		seen[uid] = struct{}{}
		uids = append(uids, uid)
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	return uids
}
