package httpserver

import (
	"context"
	"time"

	"github.com/declue/container-ops/internal/infra/appstate"
)

// appstater is an internal interface for application state management
type appstater interface {
	GetState() appstate.State
	IsHealthy() bool
	IsReady() bool
	GetUptime() time.Duration
	GetStartTime() time.Time
}

// webhookTester triggers a manual webhook delivery by id.
type webhookTester interface {
	TestCommand(ctx context.Context, webhookID string) error
}

// cycleReporter exposes the completion time of the last collection cycle.
type cycleReporter interface {
	LastCycleTime() time.Time
}
