package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/declue/container-ops/internal/infra/appstate"
	"github.com/declue/container-ops/internal/logic/alerting"
)

type fakeTester struct {
	gotID string
	err   error
}

func (f *fakeTester) TestCommand(_ context.Context, webhookID string) error {
	f.gotID = webhookID

	return f.err
}

type fakeCycles struct {
	last time.Time
}

func (f *fakeCycles) LastCycleTime() time.Time { return f.last }

func newTestServer(t *testing.T, tester webhookTester, cycles cycleReporter) (*Server, *appstate.AppState) {
	t.Helper()

	quit := make(chan os.Signal, 1)
	appState := appstate.New(slog.Default(), time.Now(), quit)

	return New(slog.Default(), appState, tester, cycles, ""), appState
}

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	srv, appState := newTestServer(t, &fakeTester{}, &fakeCycles{})

	rec := httptest.NewRecorder()
	srv.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/-/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, appState.SetStarting(t.Context()))
	require.NoError(t, appState.SetRunning(t.Context()))

	rec = httptest.NewRecorder()
	srv.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/-/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	lastCycle := time.Now().Add(-3 * time.Second)
	srv, appState := newTestServer(t, &fakeTester{}, &fakeCycles{last: lastCycle})

	require.NoError(t, appState.SetStarting(t.Context()))
	require.NoError(t, appState.SetRunning(t.Context()))

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/-/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, string(appstate.StateRunning), got.State)
	require.NotNil(t, got.LastCycleAt)
	require.WithinDuration(t, lastCycle, *got.LastCycleAt, time.Second)
}

func TestHandleStatus_NoCycleYet(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &fakeTester{}, &fakeCycles{})

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/-/status", nil))

	var got statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Nil(t, got.LastCycleAt)
}

func TestHandleWebhookTest(t *testing.T) {
	t.Parallel()

	t.Run("dispatches by id", func(t *testing.T) {
		t.Parallel()

		tester := &fakeTester{}
		srv, _ := newTestServer(t, tester, &fakeCycles{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/-/webhooks/test", strings.NewReader(`{"id":"hook-1"}`))
		srv.handleWebhookTest(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "hook-1", tester.gotID)
	})

	t.Run("missing id is a bad request", func(t *testing.T) {
		t.Parallel()

		srv, _ := newTestServer(t, &fakeTester{}, &fakeCycles{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/-/webhooks/test", strings.NewReader(`{}`))
		srv.handleWebhookTest(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown webhook is not found", func(t *testing.T) {
		t.Parallel()

		tester := &fakeTester{err: alerting.ErrWebhookNotFound}
		srv, _ := newTestServer(t, tester, &fakeCycles{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/-/webhooks/test", strings.NewReader(`{"id":"nope"}`))
		srv.handleWebhookTest(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
