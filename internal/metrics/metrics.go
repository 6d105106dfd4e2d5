package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubs_http_requests_total", Help: "HTTP requests by route and status"},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "clubs_http_request_duration_seconds", Help: "HTTP request latency", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubs_login_attempts_total", Help: "Login attempts by principal kind and outcome"},
		[]string{"kind", "outcome"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "clubs_rate_limited_total", Help: "Requests rejected by the strict rate limiter"},
	)
	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "clubs_messages_sent_total", Help: "Direct messages sent"},
	)
	EventRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubs_event_registrations_total", Help: "Event registration attempts by outcome"},
		[]string{"outcome"},
	)
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "clubs_jobs_processed_total", Help: "Background jobs by type and outcome"},
		[]string{"type", "outcome"},
	)
	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "clubs_ws_connections", Help: "Open websocket connections"},
	)
)

func Register() {
	RegisterWith(prometheus.DefaultRegisterer)
}

// RegisterWith registers all collectors on reg.
func RegisterWith(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests, HTTPDuration, LoginAttempts, RateLimited, MessagesSent,
		EventRegistrations, JobsProcessed, WSConnections)
}
