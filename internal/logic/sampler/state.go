package sampler

// ProcessStamp is the retained per-PID measurement used to compute the next
// cycle's CPU delta.
type ProcessStamp struct {
	Jiffies     int64
	TimestampMs int64
}

// SamplerState is the only long-lived mutable state of the engine: the previous
// container CPU counter and the per-PID stamps. It has exactly one writer, the
// collection cycle, and is never read concurrently; the scheduler guarantees
// cycles do not overlap, so no locking is needed.
type SamplerState struct {
	LastContainerUsageNs     int64
	LastContainerTimestampMs int64
	PerProcess               map[int32]ProcessStamp
}

// NewSamplerState returns an empty state.
func NewSamplerState() *SamplerState {
	return &SamplerState{
		PerProcess: make(map[int32]ProcessStamp),
	}
}

// Prune drops stamps for PIDs absent from the current enumeration so the map
// never grows unbounded across process churn.
func (s *SamplerState) Prune(seen map[int32]struct{}) {
	for pid := range s.PerProcess {
		if _, ok := seen[pid]; !ok {
			delete(s.PerProcess, pid)
		}
	}
}
