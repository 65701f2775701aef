package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	RemindersEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_enqueued_total",
			Help: "Reminder jobs enqueued for future delivery",
		},
	)

	RemindersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_skipped_total",
			Help: "Reminder jobs not enqueued or not dispatched",
		},
		[]string{"reason"}, // past_due, enqueue_failed, schedule_gone, not_planned, no_token, duplicate
	)

	RemindersDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_dispatched_total",
			Help: "Push reminders handed to the push sender",
		},
		[]string{"status"}, // sent, failed
	)

	SchedulesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedules_generated_total",
			Help: "Schedule occurrences created",
		},
		[]string{"pattern"},
	)

	SchedulesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schedules_swept_total",
			Help: "Planned schedules marked skipped by the daily sweep",
		},
	)
)

// RecordHTTPRequestDuration records the latency of one HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
