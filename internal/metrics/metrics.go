// Package metrics exposes Prometheus instrumentation for holdoff.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holdoff_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "holdoff_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "holdoff_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	scheduleRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holdoff_schedule_requests_total",
			Help: "Total number of accepted schedule requests",
		},
	)

	triggerExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holdoff_trigger_executions_total",
			Help: "Total number of trigger executions by outcome",
		},
		[]string{"outcome"},
	)

	triggerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "holdoff_trigger_duration_seconds",
			Help:    "Outbound trigger call latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	retriesScheduledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "holdoff_retries_scheduled_total",
			Help: "Total number of retries scheduled after failed executions",
		},
	)

	pendingSchedules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "holdoff_pending_schedules",
			Help: "Number of currently armed wake timers",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncrementInFlight() {
	httpRequestsInFlight.Inc()
}

func DecrementInFlight() {
	httpRequestsInFlight.Dec()
}

func RecordScheduleRequest() {
	scheduleRequestsTotal.Inc()
}

func RecordTriggerExecution(outcome string, duration time.Duration) {
	triggerExecutionsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		triggerDuration.Observe(duration.Seconds())
	}
}

func RecordRetryScheduled() {
	retriesScheduledTotal.Inc()
}

func SetPendingSchedules(n int) {
	pendingSchedules.Set(float64(n))
}
