package memstore

import (
	"context"
	"sync"

	"github.com/declue/container-ops/internal/logic/alerting"
)

// History is a bounded, most-recent-first record of webhook deliveries. The
// dispatcher appends from concurrent delivery goroutines, so all access is
// mutex-protected.
type History struct {
	mu      sync.Mutex
	max     int
	entries []alerting.HistoryEntry
}

// NewHistory returns a history retaining at most max entries.
func NewHistory(max int) *History {
	return &History{max: max}
}

var _ alerting.HistorySink = (*History)(nil)

// Append records one delivery outcome, evicting the oldest entry when full.
func (h *History) Append(_ context.Context, entry alerting.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]alerting.HistoryEntry{entry}, h.entries...)
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}

// List returns a copy of the retained entries, most recent first.
func (h *History) List(_ context.Context) []alerting.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]alerting.HistoryEntry(nil), h.entries...)
}
