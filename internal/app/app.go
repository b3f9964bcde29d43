package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/declue/container-ops/internal/adapters/outbound/cgroupfs"
	"github.com/declue/container-ops/internal/adapters/outbound/memstore"
	"github.com/declue/container-ops/internal/adapters/outbound/passwd"
	"github.com/declue/container-ops/internal/adapters/outbound/procfs"
	"github.com/declue/container-ops/internal/adapters/outbound/settings"
	"github.com/declue/container-ops/internal/adapters/outbound/webhook"
	"github.com/declue/container-ops/internal/config"
	"github.com/declue/container-ops/internal/httpserver"
	"github.com/declue/container-ops/internal/infra/appstate"
	"github.com/declue/container-ops/internal/infra/scheduler"
	"github.com/declue/container-ops/internal/infra/shutdown"
	"github.com/declue/container-ops/internal/logic/alerting"
	"github.com/declue/container-ops/internal/logic/sampler"
)

type App struct {
	logger     *slog.Logger
	appState   *appstate.AppState
	components []component
}

// New creates a new application instance with all dependencies wired.
func New(logger *slog.Logger, cfg *config.Config, appState *appstate.AppState) (*App, error) {
	// Secondary adapters
	probe := cgroupfs.New(logger, cfg.CgroupRoot, cfg.MountsFile)
	lister := procfs.New(logger, cfg.ProcRoot)
	resolver := passwd.New(logger, cfg.PasswdFile)
	store := memstore.NewStore()
	history := memstore.NewHistory(cfg.HistoryMax)

	settingsSrc, err := settings.New(logger, alerting.ThresholdConfig{
		Enabled:        cfg.AlertsEnabled,
		CPUPercent:     cfg.CPUThresholdPercent,
		MemoryPercent:  cfg.MemoryThresholdPercent,
		StoragePercent: cfg.StorageThresholdPercent,
	}, cfg.WebhooksFile)
	if err != nil {
		return nil, fmt.Errorf("load alerting settings: %w", err)
	}

	// Alerting pipeline: evaluator gates, dispatcher delivers.
	sender := webhook.New(logger)
	dispatcher := alerting.NewDispatcher(logger, settingsSrc, sender, history)
	evaluator := alerting.NewEvaluator(logger, settingsSrc, dispatcher)

	// Collection cycle
	samplerSvc := sampler.New(logger, probe, lister, resolver, store, evaluator, sampler.Options{
		ProcMax: cfg.ProcMax,
		AllowedUIDs: sampler.ResolveAllowedUIDs(
			cfg.VisibilityMode,
			cfg.VisibilityUIDs,
			int32(os.Getuid()),
		),
		StoragePath: cfg.StoragePath,
		SnapshotTTL: cfg.SnapshotTTL,
	})

	sched := scheduler.New(logger, cfg.CollectInterval(), samplerSvc.RunCycle)

	metricsSrv := httpserver.NewMetricsServer(logger, cfg.MetricsPort)
	httpSrv := httpserver.New(logger, appState, dispatcher, samplerSvc, cfg.HTTPPort)

	return &App{
		logger:   logger,
		appState: appState,
		// Shutdown runs in reverse registration order, so the scheduler stops
		// before the servers and the servers before nothing else.
		components: []component{metricsSrv, httpSrv, sched},
	}, nil
}

// Run starts every component and blocks until a termination signal arrives,
// then runs the graceful shutdown sequence.
func (a *App) Run(originCtx context.Context) error {
	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go shutdown.New(a.logger, a.appState).HandleSignals(ctx, cancel)

	if err := a.appState.SetStarting(ctx); err != nil {
		return fmt.Errorf("set starting application state: %w", err)
	}

	readyChans := make([]<-chan struct{}, 0, len(a.components))

	for _, c := range a.components {
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}

		a.appState.RegisterShutdowner(c)

		if r, ok := c.(readier); ok {
			readyChans = append(readyChans, r.Ready())
		}
	}

	select {
	case <-allChannelsClose(ctx, a.logger, readyChans...):
		if err := a.appState.SetRunning(ctx); err != nil {
			return fmt.Errorf("set running application state: %w", err)
		}

		a.logger.InfoContext(ctx, "container-ops running")
	case <-ctx.Done():
	}

	<-ctx.Done()

	shutdownCtx := context.WithoutCancel(ctx)
	if err := a.appState.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	return nil
}

// allChannelsClose returns a channel that closes once every input channel has
// closed, or stops waiting early when the context is cancelled.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		for _, ch := range chans {
			select {
			case <-ch:
			case <-ctx.Done():
				logger.WarnContext(ctx, "context cancelled while waiting for readiness")

				return
			}
		}
	}()

	return out
}
