package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP-layer metrics, registered the first time Middleware is wired into a
// router so that library embedders never pay for them.
var (
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "boardex",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boardex",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "boardex",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)

	registerHTTPOnce sync.Once
)

// Middleware records request count, duration and an in-flight gauge, labeled
// by chi route pattern. Requests that match no route share one "unmatched"
// label to keep cardinality bounded.
func Middleware() func(next http.Handler) http.Handler {
	registerHTTPOnce.Do(func() {
		prometheus.MustRegister(httpDuration, httpRequests, httpInFlight)
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				// Handler wrote nothing; net/http sends 200 on its behalf.
				status = http.StatusOK
			}
			code := strconv.Itoa(status)

			httpRequests.WithLabelValues(r.Method, route, code).Inc()
			httpDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
		})
	}
}
