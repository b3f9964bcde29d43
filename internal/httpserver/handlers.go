package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/declue/container-ops/internal/logic/alerting"
)

type statusResponse struct {
	State       string     `json:"state"`
	Uptime      string     `json:"uptime"`
	StartTime   time.Time  `json:"startTime"`
	UptimeSec   float64    `json:"uptimeSeconds"`
	LastCycleAt *time.Time `json:"lastCycleAt,omitempty"`
}

type webhookTestRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !s.appState.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := s.appState.GetState()
	uptime := s.appState.GetUptime()
	startTime := s.appState.GetStartTime()

	response := statusResponse{
		State:     string(state),
		Uptime:    uptime.String(),
		StartTime: startTime,
		UptimeSec: uptime.Seconds(),
	}

	if lastCycle := s.cycles.LastCycleTime(); !lastCycle.IsZero() {
		response.LastCycleAt = &lastCycle
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode status response",
			"error", err,
		)
	}
}

func (s *Server) handleWebhookTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req webhookTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "body must be a JSON object with a non-empty id", http.StatusBadRequest)

		return
	}

	if err := s.tester.TestCommand(ctx, req.ID); err != nil {
		if errors.Is(err, alerting.ErrWebhookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)

			return
		}

		s.logger.ErrorContext(ctx, "webhook test failed", "id", req.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
