package alerting

import "time"

const (
	// cooldownDuration is the minimum gap between two notifications for the
	// same resource. Crossing back below the threshold does not reset it.
	cooldownDuration = 5 * time.Minute

	alertThresholdExceeded = "resource_threshold"
	alertManualTest        = "manual_test"

	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"
)
