package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/declue/container-ops/internal/infra/metrics"
)

// Dispatcher renders and executes webhook deliveries. Deliveries to distinct
// webhooks are independent: they run concurrently and one webhook's failure or
// timeout never blocks another's. Every attempt produces a history entry.
type Dispatcher struct {
	logger   *slog.Logger
	settings SettingsSource
	sender   Sender
	history  HistorySink
	newID    func() string
}

// NewDispatcher creates a webhook dispatcher.
func NewDispatcher(logger *slog.Logger, settings SettingsSource, sender Sender, history HistorySink) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		settings: settings,
		sender:   sender,
		history:  history,
		newID:    uuid.NewString,
	}
}

// DispatchCommand delivers the event to every enabled webhook and waits for
// all outcomes. It never short-circuits on a failed delivery.
func (d *Dispatcher) DispatchCommand(ctx context.Context, event Event) {
	webhooks, err := d.settings.WebhookConfigsQuery(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "load webhook configs", "reason", err)

		return
	}

	var wg sync.WaitGroup

	for i := range webhooks {
		if !webhooks[i].Enabled {
			continue
		}

		wg.Add(1)

		go func(cfg WebhookConfig) {
			defer wg.Done()
			d.deliver(ctx, cfg, event)
		}(webhooks[i])
	}

	wg.Wait()
}

// TestCommand exercises one webhook through the identical delivery routine
// with a synthetic reason, bypassing the threshold and cooldown gates.
func (d *Dispatcher) TestCommand(ctx context.Context, webhookID string) error {
	webhooks, err := d.settings.WebhookConfigsQuery(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadWebhooks, err)
	}

	for i := range webhooks {
		if webhooks[i].ID != webhookID {
			continue
		}

		d.deliver(ctx, webhooks[i], NewTestEvent(time.Now().UnixMilli()))

		return nil
	}

	return fmt.Errorf("%w: %q", ErrWebhookNotFound, webhookID)
}

func (d *Dispatcher) deliver(ctx context.Context, cfg WebhookConfig, event Event) {
	method := strings.ToUpper(cfg.Method)

	var body []byte
	if methodAllowsBody(method) && cfg.BodyTemplate != "" {
		body = []byte(RenderBodyTemplate(cfg.BodyTemplate, event))
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	if len(body) > 0 && !hasContentType(headers) {
		headers[contentTypeHeader] = contentTypeJSON
	}

	// An in-flight delivery runs to completion or the sender's own timeout;
	// cancellation of the caller's context (shutdown) must not abort it.
	sendCtx := context.WithoutCancel(ctx)

	start := time.Now()
	statusCode, err := d.sender.SendCommand(sendCtx, method, cfg.URL, headers, body)
	elapsed := time.Since(start)

	entry := HistoryEntry{
		ID:             d.newID(),
		TimestampMs:    start.UnixMilli(),
		WebhookName:    cfg.Name,
		WebhookURL:     cfg.URL,
		Method:         method,
		Reason:         event.Reason,
		ResponseTimeMs: elapsed.Milliseconds(),
	}

	if err != nil {
		// Transport-level failure: no HTTP response at all.
		msg := err.Error()
		entry.Error = &msg

		d.logger.WarnContext(ctx, "webhook delivery failed",
			"webhook", cfg.Name,
			"reason", err,
		)
	} else {
		// Any HTTP response, including 4xx/5xx, counts as a delivery.
		entry.StatusCode = &statusCode
		entry.Success = true
	}

	metrics.RecordWebhookDelivery(entry.Success)
	d.history.Append(ctx, entry)
}

func methodAllowsBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}

func hasContentType(headers map[string]string) bool {
	for key := range headers {
		if strings.EqualFold(key, contentTypeHeader) {
			return true
		}
	}

	return false
}
