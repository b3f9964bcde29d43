package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	cron "github.com/netresearch/go-cron"

	"github.com/declue/container-ops/internal/infra/metrics"
	"github.com/declue/container-ops/internal/infra/shutdown"
)

// Scheduler fires a job at a fixed interval. Ticks that arrive while the
// previous run is still in progress are skipped, not queued: the job mutates
// sampler state across many reads and must never run twice concurrently.
type Scheduler struct {
	logger     *slog.Logger
	interval   time.Duration
	job        func(ctx context.Context)
	cron       *cron.Cron
	inShutdown atomic.Bool
}

// New creates a scheduler that invokes job every interval.
func New(logger *slog.Logger, interval time.Duration, job func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		logger:   logger,
		interval: interval,
		job:      job,
	}
}

var _ shutdown.Shutdowner = (*Scheduler)(nil)

// Name returns the name of the scheduler component.
func (s *Scheduler) Name() string {
	return "scheduler"
}

// Start runs the job once immediately, then on every interval tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "scheduler is shutting down, skipping start")

		return nil
	}

	guarded := s.skipIfRunning(ctx)

	s.cron = cron.New(cron.WithLogger(&slogCronLogger{logger: s.logger}))
	s.cron.Schedule(cron.Every(s.interval), guarded)

	go guarded.Run()

	s.cron.Start()

	s.logger.InfoContext(ctx, "scheduler started", "interval", s.interval)

	return nil
}

// Shutdown stops the cron and waits for an in-flight run to finish.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "scheduler is already shutting down, skipping shutdown")

		return nil
	}

	if s.cron == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "shutting down scheduler")

	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown: %w", ctx.Err())
	}

	s.logger.InfoContext(ctx, "scheduler stopped")

	return nil
}

// skipIfRunning wraps the job with an in-progress guard. A tick arriving while
// the previous run is still active is dropped and logged.
func (s *Scheduler) skipIfRunning(startCtx context.Context) cron.FuncJob {
	var running atomic.Bool

	return func() {
		// Each run gets a context detached from the start context: an
		// in-flight run finishes on its own, Shutdown waits via Stop.
		ctx := context.WithoutCancel(startCtx)

		if !running.CompareAndSwap(false, true) {
			s.logger.WarnContext(ctx, "previous collection cycle still running, skipping tick")
			metrics.RecordTickSkipped()

			return
		}
		defer running.Store(false)

		s.job(ctx)
	}
}

// slogCronLogger adapts slog to the cron logger interface.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"reason", err}, keysAndValues...)...)
}
