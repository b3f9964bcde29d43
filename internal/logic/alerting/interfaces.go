package alerting

import "context"

// SettingsSource is the settings collaborator. Implementations are provided by
// adapters in the outbound layer.
type SettingsSource interface {
	ThresholdConfigQuery(ctx context.Context) (ThresholdConfig, error)
	WebhookConfigsQuery(ctx context.Context) ([]WebhookConfig, error)
}

// HistorySink receives one entry per delivery attempt, regardless of outcome.
type HistorySink interface {
	Append(ctx context.Context, entry HistoryEntry)
}

// Sender executes one rendered webhook request. A returned error means the
// request produced no HTTP response at all (timeout, DNS, connection refused).
type Sender interface {
	SendCommand(
		ctx context.Context,
		method, url string,
		headers map[string]string,
		body []byte,
	) (statusCode int, err error)
}

// eventDispatcher is a private interface so the evaluator can be tested
// without a real dispatcher.
type eventDispatcher interface {
	DispatchCommand(ctx context.Context, event Event)
}
