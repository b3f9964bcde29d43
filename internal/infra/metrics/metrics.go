package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var collectCyclesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "container_ops_collect_cycles_total",
		Help: "Total number of completed metrics collection cycles.",
	},
)

var collectCycleErrorsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "container_ops_collect_cycle_errors_total",
		Help: "Total number of collection cycles aborted by an unexpected error.",
	},
)

var ticksSkippedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "container_ops_ticks_skipped_total",
		Help: "Total number of scheduler ticks skipped because the previous " +
			"collection cycle was still running.",
	},
)

var processesSampled = promauto.With(prometheus.DefaultRegisterer).NewGauge(
	prometheus.GaugeOpts{
		Name: "container_ops_processes_sampled",
		Help: "Number of processes included in the most recent snapshot.",
	},
)

var webhookDeliveriesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "container_ops_webhook_deliveries_total",
		Help: "Total number of webhook delivery attempts by outcome.",
	},
	[]string{"outcome"},
)

var thresholdNotificationsTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "container_ops_threshold_notifications_total",
		Help: "Total number of threshold notifications dispatched by resource.",
	},
	[]string{"resource"},
)

// RecordCollectCycle increments the completed-cycle counter.
func RecordCollectCycle() {
	collectCyclesTotal.Inc()
}

// RecordCollectCycleError increments the aborted-cycle counter.
func RecordCollectCycleError() {
	collectCycleErrorsTotal.Inc()
}

// RecordTickSkipped increments the skipped-tick counter.
func RecordTickSkipped() {
	ticksSkippedTotal.Inc()
}

// RecordProcessesSampled sets the process count of the latest snapshot.
func RecordProcessesSampled(count int) {
	processesSampled.Set(float64(count))
}

// RecordWebhookDelivery increments the delivery counter with a success/failure outcome.
func RecordWebhookDelivery(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}

	webhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// RecordThresholdNotification increments the notification counter for a resource.
func RecordThresholdNotification(resource string) {
	thresholdNotificationsTotal.WithLabelValues(resource).Inc()
}
