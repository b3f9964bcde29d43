package httpserver_test

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/declue/container-ops/internal/httpserver"
	"github.com/declue/container-ops/internal/infra/appstate"
)

type stubTester struct{}

func (stubTester) TestCommand(_ context.Context, _ string) error { return nil }

type stubCycles struct{}

func (stubCycles) LastCycleTime() time.Time { return time.Time{} }

func TestNew(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	quit := make(chan os.Signal, 1)

	quit <- syscall.SIGTERM

	close(quit)

	appState := appstate.New(logger, time.Now(), quit)

	t.Run("empty port uses default", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(logger, appState, stubTester{}, stubCycles{}, "")
		require.NotNil(t, srv)
	})

	t.Run("non-empty port is used", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(logger, appState, stubTester{}, stubCycles{}, "9999")
		require.NotNil(t, srv)
	})
}

func TestServer_Name(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	quit := make(chan os.Signal, 1)
	appState := appstate.New(logger, time.Now(), quit)
	srv := httpserver.New(logger, appState, stubTester{}, stubCycles{}, "")

	require.Equal(t, "http-server", srv.Name())
}

func TestServer_Lifecycle(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	quit := make(chan os.Signal, 1)
	appState := appstate.New(logger, time.Now(), quit)
	require.NoError(t, appState.SetStarting(t.Context()))
	require.NoError(t, appState.SetRunning(t.Context()))

	srv := httpserver.New(logger, appState, stubTester{}, stubCycles{}, "0")

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)

	defer cancel()

	require.NoError(t, srv.Start(ctx))

	select {
	case <-srv.Ready():
	case <-time.After(1 * time.Second):
		t.Fatal("server did not become ready")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	require.NoError(t, srv.Shutdown(shutdownCtx))
}

func TestMetricsServer_Lifecycle(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewMetricsServer(slog.Default(), "0")
	require.Equal(t, "metrics-server", srv.Name())

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)

	defer cancel()

	require.NoError(t, srv.Start(ctx))

	select {
	case <-srv.Ready():
	case <-time.After(1 * time.Second):
		t.Fatal("metrics server did not become ready")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	require.NoError(t, srv.Shutdown(shutdownCtx))
}
