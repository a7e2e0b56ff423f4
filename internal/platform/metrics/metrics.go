package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry contiene los collectors propios del servicio.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pet_adoption",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pet_adoption",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pet_adoption",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms a ~5s
		},
		[]string{"method", "route"},
	)

	applicationsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pet_adoption",
			Subsystem: "applications",
			Name:      "submitted_total",
			Help:      "Adoption applications created.",
		},
	)

	applicationsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pet_adoption",
			Subsystem: "applications",
			Name:      "reviewed_total",
			Help:      "Admin reviews by outcome.",
		},
		[]string{"status"},
	)

	applicationsCascaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pet_adoption",
			Subsystem: "applications",
			Name:      "cascade_rejected_total",
			Help:      "Sibling applications rejected by an approval.",
		},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pet_adoption",
			Subsystem: "notifications",
			Name:      "failures_total",
			Help:      "Notifications that could not be delivered.",
		},
		[]string{"kind"},
	)

	petsReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pet_adoption",
			Subsystem: "pets",
			Name:      "status_reconciled_total",
			Help:      "Pets whose stored status drifted and was repaired.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		applicationsSubmitted,
		applicationsReviewed,
		applicationsCascaded,
		notificationFailures,
		petsReconciled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler expone el registry propio en formato Prometheus.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHTTP registra métricas por ruta chi (pattern, no path crudo).
func InstrumentHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordSubmitted() { applicationsSubmitted.Inc() }

func RecordReview(status string) { applicationsReviewed.WithLabelValues(status).Inc() }

func RecordCascade(n int) {
	if n > 0 {
		applicationsCascaded.Add(float64(n))
	}
}

func RecordNotificationFailure(kind string) { notificationFailures.WithLabelValues(kind).Inc() }

func RecordReconciled() { petsReconciled.Inc() }
