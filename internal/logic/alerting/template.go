package alerting

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderBodyTemplate substitutes the whitelisted placeholders with the event's
// values. Unrecognized placeholders pass through unchanged; the substitution is
// driven by a fixed key set, never by scanning for arbitrary braces.
func RenderBodyTemplate(template string, event Event) string {
	replacer := strings.NewReplacer(
		"{{timestamp}}", strconv.FormatInt(event.TimestampMs, 10),
		"{{alert}}", event.Alert,
		"{{resource}}", string(event.Resource),
		"{{currentValue}}", strconv.FormatFloat(event.CurrentValue, 'f', -1, 64),
		"{{threshold}}", strconv.FormatFloat(event.Threshold, 'f', -1, 64),
		"{{message}}", event.Message,
	)

	return replacer.Replace(template)
}

// NewThresholdEvent builds the event for a threshold crossing.
func NewThresholdEvent(nowMs int64, resource Resource, current, threshold float64) Event {
	message := fmt.Sprintf(
		"%s usage (%.1f%%) has exceeded the threshold of %g%%",
		resource.Label(), current, threshold,
	)

	return Event{
		TimestampMs:  nowMs,
		Alert:        alertThresholdExceeded,
		Resource:     resource,
		CurrentValue: current,
		Threshold:    threshold,
		Message:      message,
		Reason:       message,
	}
}

// NewTestEvent builds the synthetic event used by the manual webhook test path.
func NewTestEvent(nowMs int64) Event {
	return Event{
		TimestampMs: nowMs,
		Alert:       alertManualTest,
		Message:     "This is a test notification",
		Reason:      "Manual webhook test",
	}
}
