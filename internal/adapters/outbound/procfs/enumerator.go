package procfs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tklauser/go-sysconf"
	"golang.org/x/sync/errgroup"

	"github.com/declue/container-ops/internal/logic/sampler"
)

const (
	// maxConcurrentReads bounds the goroutines reading per-PID files so a host
	// with tens of thousands of processes cannot exhaust file descriptors.
	maxConcurrentReads = 32

	// defaultClkTck is the near-universal Linux value, used only when sysconf
	// itself fails.
	defaultClkTck = 100.0

	// cpuCoresEpsilon guards the normalization divisor; a zero core limit
	// clamps the percentage instead of dividing by zero.
	cpuCoresEpsilon = 1e-9

	kibibyte = 1024
)

// Enumerator lists processes from a proc filesystem root and attributes CPU
// and memory per PID. PIDs that vanish between the directory listing and the
// per-PID reads are dropped without error; that race is ordinary on a live
// host.
type Enumerator struct {
	logger   *slog.Logger
	procRoot string
	clkTck   float64
	pageSize int64
}

// New creates an enumerator rooted at the given proc filesystem path.
func New(logger *slog.Logger, procRoot string) *Enumerator {
	clkTck := defaultClkTck
	if ticks, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && ticks > 0 {
		clkTck = float64(ticks)
	}

	return &Enumerator{
		logger:   logger,
		procRoot: procRoot,
		clkTck:   clkTck,
		pageSize: int64(os.Getpagesize()),
	}
}

var _ sampler.ProcessLister = (*Enumerator)(nil)

// procResult pairs one sampled process with the stamp to retain for the next
// cycle's delta.
type procResult struct {
	sample sampler.ProcessSample
	stamp  sampler.ProcessStamp
}

// ListProcessesQuery enumerates the proc root, reads each PID concurrently,
// then applies stamps to the state sequentially. The state map is only read
// during the concurrent phase and only written after all readers finish.
func (e *Enumerator) ListProcessesQuery(
	ctx context.Context,
	query sampler.ProcessQuery,
	state *sampler.SamplerState,
) ([]sampler.ProcessSample, error) {
	entries, err := os.ReadDir(e.procRoot)
	if err != nil {
		return nil, err
	}

	pids := make([]int32, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.ParseInt(entry.Name(), 10, 32)
		if err != nil {
			continue
		}

		pids = append(pids, int32(pid))
	}

	results := make([]*procResult, len(pids))

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentReads)

	for i, pid := range pids {
		group.Go(func() error {
			results[i] = e.readProcess(pid, query, state)

			return nil
		})
	}

	// Readers never return errors; Wait is only a barrier here.
	_ = group.Wait()

	seen := make(map[int32]struct{}, len(pids))
	samples := make([]sampler.ProcessSample, 0, len(pids))

	for _, result := range results {
		if result == nil {
			continue
		}

		seen[result.sample.PID] = struct{}{}
		state.PerProcess[result.sample.PID] = result.stamp
		samples = append(samples, result.sample)
	}

	state.Prune(seen)

	sortSamples(samples)

	if query.MaxProcesses > 0 && len(samples) > query.MaxProcesses {
		samples = samples[:query.MaxProcesses]
	}

	return samples, nil
}

// sortSamples orders by CPU percent descending with nil treated as zero, ties
// broken by memory bytes descending.
func sortSamples(samples []sampler.ProcessSample) {
	cpuOf := func(s sampler.ProcessSample) float64 {
		if s.CPUPercent == nil {
			return 0
		}

		return *s.CPUPercent
	}

	sort.SliceStable(samples, func(i, j int) bool {
		ci, cj := cpuOf(samples[i]), cpuOf(samples[j])
		if ci != cj {
			return ci > cj
		}

		return samples[i].MemoryBytes > samples[j].MemoryBytes
	})
}

// readProcess samples one PID. It returns nil when the PID vanished mid-read
// or its UID is filtered out.
func (e *Enumerator) readProcess(
	pid int32,
	query sampler.ProcessQuery,
	state *sampler.SamplerState,
) *procResult {
	dir := filepath.Join(e.procRoot, strconv.FormatInt(int64(pid), 10))

	// The status file carries both UID and VmRSS, so visibility filtering
	// happens before any further reads.
	uid, rssBytes, ok := e.readStatus(dir)
	if !ok {
		return nil
	}

	if query.AllowedUIDs != nil {
		if _, allowed := query.AllowedUIDs[uid]; !allowed {
			return nil
		}
	}

	ppid, jiffies, ok := e.readStat(dir)
	if !ok {
		return nil
	}

	if rssBytes == 0 {
		rssBytes = e.readStatmRSS(dir)
	}

	sample := sampler.ProcessSample{
		PID:         pid,
		PPID:        ppid,
		UID:         &uid,
		Command:     e.readCommand(dir),
		MemoryBytes: rssBytes,
	}

	if prev, exists := state.PerProcess[pid]; exists && query.NowMs > prev.TimestampMs {
		deltaSeconds := float64(query.NowMs-prev.TimestampMs) / 1000.0
		cpuSeconds := float64(jiffies-prev.Jiffies) / e.clkTck

		cores := query.CPULimitCores
		if cores < cpuCoresEpsilon {
			cores = cpuCoresEpsilon
		}

		percent := sampler.ClampPercent(cpuSeconds / deltaSeconds * 100.0 / cores)
		sample.CPUPercent = &percent
	}

	if query.MemoryLimitBytes > 0 {
		percent := sampler.ClampPercent(float64(rssBytes) / float64(query.MemoryLimitBytes) * 100.0)
		sample.MemoryPercent = &percent
	}

	return &procResult{
		sample: sample,
		stamp:  sampler.ProcessStamp{Jiffies: jiffies, TimestampMs: query.NowMs},
	}
}

// readStatus extracts the real UID and VmRSS from /proc/<pid>/status. A
// missing VmRSS line (kernel threads) yields zero bytes; a missing file
// reports ok=false.
func (e *Enumerator) readStatus(dir string) (uid int32, rssBytes int64, ok bool) {
	data, err := os.ReadFile(filepath.Join(dir, "status"))
	if err != nil {
		return 0, 0, false
	}

	haveUID := false

	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "Uid:"):
			fields := strings.Fields(line[len("Uid:"):])
			if len(fields) == 0 {
				continue
			}

			parsed, err := strconv.ParseInt(fields[0], 10, 32)
			if err != nil {
				continue
			}

			uid = int32(parsed)
			haveUID = true
		case strings.HasPrefix(line, "VmRSS:"):
			fields := strings.Fields(line[len("VmRSS:"):])
			if len(fields) == 0 {
				continue
			}

			kb, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				continue
			}

			rssBytes = kb * kibibyte
		}
	}

	return uid, rssBytes, haveUID
}

// readStat parses PPID and cumulative CPU jiffies (utime+stime) from
// /proc/<pid>/stat. Fields are located after the last ')' because the comm
// field may itself contain spaces and parentheses.
func (e *Enumerator) readStat(dir string) (ppid int32, jiffies int64, ok bool) {
	data, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return 0, 0, false
	}

	closeParen := strings.LastIndexByte(string(data), ')')
	if closeParen < 0 {
		return 0, 0, false
	}

	// fields[0] is process state (field 3); PPID is field 4, utime field 14,
	// stime field 15 in stat(5) numbering.
	fields := strings.Fields(string(data[closeParen+1:]))
	if len(fields) < 13 {
		return 0, 0, false
	}

	parsedPPID, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}

	utime, err := strconv.ParseInt(fields[11], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	stime, err := strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return int32(parsedPPID), utime + stime, true
}

// readCommand prefers the full cmdline with NUL separators turned into
// spaces, falling back to comm for kernel threads and zombies.
func (e *Enumerator) readCommand(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "cmdline"))
	if err == nil {
		command := strings.TrimSpace(strings.ReplaceAll(string(data), "\x00", " "))
		if command != "" {
			return command
		}
	}

	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(comm))
}

// readStatmRSS is the fallback memory source: resident pages times page size.
func (e *Enumerator) readStatmRSS(dir string) int64 {
	data, err := os.ReadFile(filepath.Join(dir, "statm"))
	if err != nil {
		return 0
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0
	}

	pages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0
	}

	return pages * e.pageSize
}
