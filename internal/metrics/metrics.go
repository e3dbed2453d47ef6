package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collab_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_notifications_created_total",
			Help: "In-app notifications written, by event type",
		},
		[]string{"type"},
	)

	// FanoutFailures counts swallowed side-effect failures.
	FanoutFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_fanout_failures_total",
			Help: "Notification fan-out failures, by stage",
		},
		[]string{"stage"},
	)

	Emails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_emails_total",
			Help: "Email delivery attempts, by outcome",
		},
		[]string{"status"},
	)

	EligibilityEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_eligibility_evaluations_total",
			Help: "Fulfillment evaluations, by result",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(HTTPRequests, RequestDuration, NotificationsCreated, FanoutFailures, Emails, EligibilityEvaluations)
}
