package alerting

import (
	"context"
	"log/slog"
	"time"

	"github.com/declue/container-ops/internal/infra/metrics"
)

// Evaluator compares cycle aggregates against the configured thresholds and
// dispatches notifications under a per-resource cooldown. Cooldown state is
// process-wide and reset only by restart.
//
// EvaluateCommand is only ever invoked from the serialized collection cycle,
// so lastNotifiedAt needs no locking; the manual webhook test path goes
// straight to the dispatcher and never touches it.
type Evaluator struct {
	logger         *slog.Logger
	settings       SettingsSource
	dispatcher     eventDispatcher
	clock          func() time.Time
	lastNotifiedAt map[Resource]time.Time
}

// NewEvaluator creates a threshold evaluator.
func NewEvaluator(logger *slog.Logger, settings SettingsSource, dispatcher eventDispatcher) *Evaluator {
	return &Evaluator{
		logger:         logger,
		settings:       settings,
		dispatcher:     dispatcher,
		clock:          time.Now,
		lastNotifiedAt: make(map[Resource]time.Time),
	}
}

// WithClock overrides the time source; used by tests.
func (e *Evaluator) WithClock(clock func() time.Time) *Evaluator {
	e.clock = clock

	return e
}

// EvaluateCommand checks the three resources independently: one resource's
// cooldown never affects another's. A crossing inside the cooldown window is
// suppressed silently.
func (e *Evaluator) EvaluateCommand(ctx context.Context, cpuPct, memoryPct, storagePct float64) {
	cfg, err := e.settings.ThresholdConfigQuery(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "load threshold config", "reason", err)

		return
	}

	if !cfg.Enabled {
		return
	}

	checks := []struct {
		resource  Resource
		current   float64
		threshold float64
	}{
		{ResourceCPU, cpuPct, cfg.CPUPercent},
		{ResourceMemory, memoryPct, cfg.MemoryPercent},
		{ResourceStorage, storagePct, cfg.StoragePercent},
	}

	now := e.clock()

	for _, check := range checks {
		if check.threshold <= 0 || check.current < check.threshold {
			continue
		}

		if now.Sub(e.lastNotifiedAt[check.resource]) < cooldownDuration {
			continue
		}

		event := NewThresholdEvent(now.UnixMilli(), check.resource, check.current, check.threshold)

		e.logger.InfoContext(ctx, "threshold exceeded, notifying",
			"resource", string(check.resource),
			"current", check.current,
			"threshold", check.threshold,
		)

		e.dispatcher.DispatchCommand(ctx, event)
		e.lastNotifiedAt[check.resource] = now

		metrics.RecordThresholdNotification(string(check.resource))
	}
}
