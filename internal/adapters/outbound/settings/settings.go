package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/declue/container-ops/internal/logic/alerting"
)

var (
	ErrReadWebhooksFile = errors.New("read webhooks file")
	ErrInvalidWebhook   = errors.New("invalid webhook definition")
)

// Static serves alerting settings resolved once at startup: thresholds from
// the environment, webhook definitions from an optional JSON file. There is
// no runtime mutation; a settings change means a restart.
type Static struct {
	thresholds alerting.ThresholdConfig
	webhooks   []alerting.WebhookConfig
}

// New loads webhook definitions from webhooksFile, when set, and normalizes
// them: missing IDs get generated, missing methods default to POST. A webhook
// without a URL or with an unsupported method fails startup.
func New(logger *slog.Logger, thresholds alerting.ThresholdConfig, webhooksFile string) (*Static, error) {
	static := &Static{thresholds: thresholds}

	if webhooksFile == "" {
		return static, nil
	}

	data, err := os.ReadFile(webhooksFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadWebhooksFile, err)
	}

	var webhooks []alerting.WebhookConfig
	if err := json.Unmarshal(data, &webhooks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadWebhooksFile, err)
	}

	for i := range webhooks {
		if err := normalize(&webhooks[i]); err != nil {
			return nil, err
		}
	}

	logger.Info("webhook definitions loaded",
		"file", webhooksFile,
		"count", len(webhooks),
	)

	static.webhooks = webhooks

	return static, nil
}

var _ alerting.SettingsSource = (*Static)(nil)

// ThresholdConfigQuery returns the resolved threshold settings.
func (s *Static) ThresholdConfigQuery(_ context.Context) (alerting.ThresholdConfig, error) {
	return s.thresholds, nil
}

// WebhookConfigsQuery returns a copy of the loaded webhook definitions.
func (s *Static) WebhookConfigsQuery(_ context.Context) ([]alerting.WebhookConfig, error) {
	return append([]alerting.WebhookConfig(nil), s.webhooks...), nil
}

func normalize(webhook *alerting.WebhookConfig) error {
	if webhook.URL == "" {
		return fmt.Errorf("%w: %q has no url", ErrInvalidWebhook, webhook.Name)
	}

	if webhook.ID == "" {
		webhook.ID = uuid.NewString()
	}

	if webhook.Method == "" {
		webhook.Method = http.MethodPost
	}

	switch strings.ToUpper(webhook.Method) {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch:
		return nil
	default:
		return fmt.Errorf("%w: %q has unsupported method %q", ErrInvalidWebhook, webhook.Name, webhook.Method)
	}
}
