package alerting

import "errors"

var (
	ErrWebhookNotFound = errors.New("webhook not found")
	ErrLoadWebhooks    = errors.New("load webhook configs")
)
