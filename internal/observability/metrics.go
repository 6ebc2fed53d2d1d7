package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	submissionsTotal     *prometheus.CounterVec
	evaluationsTotal     *prometheus.CounterVec
	archiveRejectedTotal *prometheus.CounterVec
	sseClientsActive     *prometheus.GaugeVec
	broadcastEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_portfolio_submissions_total",
			Help: "Portfolio submission lifecycle transitions.",
		}, []string{"transition"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_portfolio_evaluations_total",
			Help: "Portfolio evaluations recorded, by outcome.",
		}, []string{"status"})

		archiveRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_archive_rejected_total",
			Help: "Portfolio archive uploads rejected, by reason.",
		}, []string{"reason"})

		sseClientsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "portal_stream_clients_active",
			Help: "Currently connected streaming clients per stream.",
		}, []string{"stream"})

		broadcastEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_broadcast_events_total",
			Help: "Events pushed through the broadcast hubs.",
		}, []string{"stream", "type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			submissionsTotal,
			evaluationsTotal,
			archiveRejectedTotal,
			sseClientsActive,
			broadcastEventsTotal,
		)
	})
}

// HTTPRequests exposes the counter for served requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for served requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// SubmissionTransitions exposes the submission lifecycle counter.
func SubmissionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// Evaluations exposes the evaluation outcome counter.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// ArchiveRejected exposes the archive rejection counter.
func ArchiveRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return archiveRejectedTotal
}

// StreamClientsActive exposes the connected streaming clients gauge.
func StreamClientsActive() *prometheus.GaugeVec {
	RegisterMetrics()
	return sseClientsActive
}

// BroadcastEvents exposes the broadcast event counter.
func BroadcastEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return broadcastEventsTotal
}
