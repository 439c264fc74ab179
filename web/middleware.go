package web

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xcono/relfilter/web/response"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-Id"

// withRequestID tags the request context with an id for logging.
// A client supplied id is kept.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logx.ContextWithFields(r.Context(), logx.Field("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRateLimit rejects requests above the limiter rate with 429.
func withRateLimit(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			logx.WithContext(r.Context()).Infof("rate limited %s %s", r.Method, r.URL.Path)
			response.WriteError(w, http.StatusTooManyRequests, "Too many requests", "", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metrics holds the HTTP collectors of one handler.
// Each handler has its own registry so several can live in one process.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relfilter",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by status code and method.",
		}, []string{"code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relfilter",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by status code and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

func (m *metrics) instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.requests,
		promhttp.InstrumentHandlerDuration(m.duration, next))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
