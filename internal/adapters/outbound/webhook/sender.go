package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/declue/container-ops/internal/logic/alerting"
)

const (
	// requestTimeout caps one webhook delivery end to end.
	requestTimeout = 10 * time.Second

	// maxDrainBytes bounds how much of a response body gets read before the
	// connection is released for reuse.
	maxDrainBytes = 4096
)

// Sender executes webhook HTTP requests. It reports the status code of any
// HTTP response; only transport-level failures return an error.
type Sender struct {
	logger *slog.Logger
	client *http.Client
}

// New creates a sender with the fixed delivery timeout.
func New(logger *slog.Logger) *Sender {
	return &Sender{
		logger: logger,
		client: &http.Client{Timeout: requestTimeout},
	}
}

var _ alerting.Sender = (*Sender)(nil)

// SendCommand issues one HTTP request and returns the response status code.
// The response body is discarded.
func (s *Sender) SendCommand(
	ctx context.Context,
	method, url string,
	headers map[string]string,
	body []byte,
) (int, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute webhook request: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return resp.StatusCode, nil
}
