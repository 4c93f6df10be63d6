package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "httpebble",
			Subsystem: "admin",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "httpebble",
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	dispatchCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "httpebble",
			Subsystem: "dispatch",
			Name:      "commands_total",
			Help:      "AppMessage commands dispatched, by outcome.",
		},
		[]string{"command", "outcome"},
	)
	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "httpebble",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Outbound HTTP requests made for the watch.",
		},
		[]string{"status", "success"},
	)
	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "httpebble",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Outbound HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, dispatchCommands, upstreamRequests, upstreamDuration)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDispatch counts one routed command. outcome is "ok", "no_output" or an error class.
func RecordDispatch(command, outcome string) {
	RegisterMetrics()
	dispatchCommands.WithLabelValues(command, outcome).Inc()
}

// RecordUpstream records one outbound call. status is 0 when the transport failed.
func RecordUpstream(status int, duration time.Duration, success bool) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	successLabel := strconv.FormatBool(success)
	upstreamRequests.WithLabelValues(statusLabel, successLabel).Inc()
	upstreamDuration.WithLabelValues(statusLabel, successLabel).Observe(duration.Seconds())
}
