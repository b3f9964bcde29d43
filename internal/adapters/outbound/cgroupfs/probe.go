package cgroupfs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/declue/container-ops/internal/logic/sampler"
)

// Control file paths relative to the cgroup root.
const (
	v2CPUMaxFile    = "cpu.max"
	v2CPUStatFile   = "cpu.stat"
	v2MemMaxFile    = "memory.max"
	v2MemCurFile    = "memory.current"
	v1CPUQuotaFile  = "cpu/cpu.cfs_quota_us"
	v1CPUPeriodFile = "cpu/cpu.cfs_period_us"
	v1CPUUsageFile  = "cpuacct/cpuacct.usage"
	v1MemLimitFile  = "memory/memory.limit_in_bytes"
	v1MemUsageFile  = "memory/memory.usage_in_bytes"

	unlimitedValue = "max"
)

// Probe reads cgroup control files and substitutes host-wide values when they
// are missing or report no limit. Running on a bare host without cgroup limits
// is the documented degraded mode, not an error.
type Probe struct {
	logger     *slog.Logger
	cgroupRoot string
	mountsFile string
}

// New creates a probe rooted at the given cgroup hierarchy.
func New(logger *slog.Logger, cgroupRoot, mountsFile string) *Probe {
	return &Probe{
		logger:     logger,
		cgroupRoot: cgroupRoot,
		mountsFile: mountsFile,
	}
}

var _ sampler.SystemProbe = (*Probe)(nil)

// DetectCgroupVersion inspects the mounts table for a cgroup2 filesystem.
// Any read failure yields V1, the more widely supported layout.
func (p *Probe) DetectCgroupVersion(ctx context.Context) sampler.CgroupVersion {
	file, err := os.Open(p.mountsFile)
	if err != nil {
		p.logger.DebugContext(ctx, "mounts table unreadable, assuming cgroup v1", "reason", err)

		return sampler.CgroupV1
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 3 && fields[2] == "cgroup2" {
			return sampler.CgroupV2
		}
	}

	return sampler.CgroupV1
}

// ReadResourceLimits derives the container's CPU and memory entitlement.
func (p *Probe) ReadResourceLimits(ctx context.Context, version sampler.CgroupVersion) sampler.ResourceLimits {
	return sampler.ResourceLimits{
		CPULimitCores:    p.readCPULimit(ctx, version),
		MemoryLimitBytes: p.readMemoryLimit(ctx, version),
	}
}

func (p *Probe) readCPULimit(ctx context.Context, version sampler.CgroupVersion) float64 {
	var quota, period int64

	if version == sampler.CgroupV2 {
		// cpu.max holds "<quota> <period>" or "max <period>".
		line, err := p.readFileString(v2CPUMaxFile)
		if err != nil {
			return p.hostCPUCount(ctx)
		}

		fields := strings.Fields(line)
		if len(fields) != 2 || fields[0] == unlimitedValue {
			return p.hostCPUCount(ctx)
		}

		quota, _ = strconv.ParseInt(fields[0], 10, 64)
		period, _ = strconv.ParseInt(fields[1], 10, 64)
	} else {
		var err error

		quota, err = p.readFileInt(v1CPUQuotaFile)
		if err != nil {
			return p.hostCPUCount(ctx)
		}

		period, err = p.readFileInt(v1CPUPeriodFile)
		if err != nil {
			return p.hostCPUCount(ctx)
		}
	}

	if quota <= 0 || period <= 0 {
		return p.hostCPUCount(ctx)
	}

	return float64(quota) / float64(period)
}

func (p *Probe) readMemoryLimit(ctx context.Context, version sampler.CgroupVersion) int64 {
	limitFile := v1MemLimitFile
	if version == sampler.CgroupV2 {
		limitFile = v2MemMaxFile
	}

	raw, err := p.readFileString(limitFile)
	if err != nil || raw == unlimitedValue {
		return p.hostTotalMemory(ctx)
	}

	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 || limit > math.MaxInt64/2 {
		// v1 reports "unlimited" as a value near the int64 ceiling.
		return p.hostTotalMemory(ctx)
	}

	return limit
}

// ReadContainerCPUUsageNs reads the cumulative container CPU counter in
// nanoseconds.
func (p *Probe) ReadContainerCPUUsageNs(_ context.Context, version sampler.CgroupVersion) (int64, error) {
	if version == sampler.CgroupV2 {
		// cpu.stat reports usage_usec; convert to nanoseconds.
		data, err := os.ReadFile(filepath.Join(p.cgroupRoot, v2CPUStatFile))
		if err != nil {
			return 0, fmt.Errorf("read cpu.stat: %w", err)
		}

		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) == 2 && fields[0] == "usage_usec" {
				usec, err := strconv.ParseInt(fields[1], 10, 64)
				if err != nil {
					return 0, fmt.Errorf("parse usage_usec: %w", err)
				}

				return usec * 1000, nil
			}
		}

		return 0, fmt.Errorf("usage_usec not found in cpu.stat")
	}

	usage, err := p.readFileInt(v1CPUUsageFile)
	if err != nil {
		return 0, fmt.Errorf("read cpuacct.usage: %w", err)
	}

	return usage, nil
}

// ReadContainerMemoryUsage reads the container's current memory usage in bytes.
func (p *Probe) ReadContainerMemoryUsage(_ context.Context, version sampler.CgroupVersion) (int64, error) {
	usageFile := v1MemUsageFile
	if version == sampler.CgroupV2 {
		usageFile = v2MemCurFile
	}

	usage, err := p.readFileInt(usageFile)
	if err != nil {
		return 0, fmt.Errorf("read memory usage: %w", err)
	}

	return usage, nil
}

// ReadFilesystemUsage queries block-device usage of the given mount path.
// It returns nil on failure so callers can probe a fallback path.
func (p *Probe) ReadFilesystemUsage(ctx context.Context, path string) (*sampler.FilesystemUsage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("disk usage %s: %w", path, err)
	}

	return &sampler.FilesystemUsage{
		TotalBytes: int64(usage.Total),
		UsedBytes:  int64(usage.Used),
	}, nil
}

func (p *Probe) hostCPUCount(ctx context.Context) float64 {
	count, err := cpu.CountsWithContext(ctx, true)
	if err != nil || count <= 0 {
		return float64(runtime.NumCPU())
	}

	return float64(count)
}

func (p *Probe) hostTotalMemory(ctx context.Context) int64 {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		p.logger.DebugContext(ctx, "host memory unavailable", "reason", err)

		return 0
	}

	return int64(vm.Total)
}

func (p *Probe) readFileString(relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(p.cgroupRoot, relPath))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

func (p *Probe) readFileInt(relPath string) (int64, error) {
	raw, err := p.readFileString(relPath)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", relPath, err)
	}

	return value, nil
}
