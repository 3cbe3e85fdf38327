package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsIssued  = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_assistant", Name: "lookups_issued_total", Help: "Autocomplete lookups sent to the backend"}, []string{"field"})
	LookupsFailed  = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_assistant", Name: "lookups_failed_total", Help: "Autocomplete lookups that failed and were swallowed"}, []string{"field"})
	StaleResponses = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_assistant", Name: "stale_responses_total", Help: "Responses discarded because a newer request was issued"}, []string{"channel"})

	BookingsTotal   = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_assistant", Name: "bookings_total", Help: "Ride requests by outcome"}, []string{"outcome"})
	BookingDuration = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "ride_assistant", Name: "booking_duration_seconds", Help: "Ride request round trip latency", Buckets: prometheus.DefBuckets})

	MapRenders = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "ride_assistant", Name: "map_renders_total", Help: "Map renders by strategy"}, []string{"strategy"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_assistant", Name: "http_requests_total", Help: "Total HTTP requests handled by the web host"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_assistant",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	WSSessions = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_assistant", Name: "ws_sessions", Help: "Connected websocket sessions"})
)

// Booking outcomes.
const (
	OutcomeLoaded   = "loaded"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeStale    = "stale"
)
