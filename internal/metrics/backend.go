package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Backend client and session metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "backend_requests_total",
			Help:      "Total number of requests sent to the search backend",
		},
		[]string{"endpoint", "status"}, // status: "success" / "rejected" / "unavailable" / "malformed"
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docsearch",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	UploadedFilesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docsearch",
			Name:      "uploaded_files_total",
			Help:      "Files sent to the backend in batch uploads",
		},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docsearch",
			Name:      "sessions_active",
			Help:      "Browser sessions currently holding page state",
		},
	)
)

var registerOnce sync.Once

// Register registers all docsearch collectors on the default registry.
// Safe to call more than once; must be called from main before serving.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			httpInFlight,
			BackendRequestsTotal,
			BackendRequestDuration,
			UploadedFilesTotal,
			SessionsActive,
		)
	})
}
