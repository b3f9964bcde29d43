package app

import (
	"context"

	"github.com/declue/container-ops/internal/infra/shutdown"
)

// component is a startable unit that participates in graceful shutdown.
type component interface {
	Start(ctx context.Context) error
	shutdown.Shutdowner
}

// readier is implemented by components that signal readiness asynchronously.
type readier interface {
	Ready() <-chan struct{}
}
