package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chessconnect",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chessconnect",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chessconnect",
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	upstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chessconnect",
		Name:      "chesscom_requests_total",
		Help:      "Chess.com API calls by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	refreshUsers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chessconnect",
		Name:      "rating_refresh_users_total",
		Help:      "Users processed by rating refresh passes, by pass and outcome",
	}, []string{"pass", "outcome"})

	refreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chessconnect",
		Name:      "rating_refresh_pass_duration_seconds",
		Help:      "Wall time of rating refresh passes",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"pass"})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chessconnect",
		Name:      "chess_verifications_total",
		Help:      "Verification attempts by step and result",
	}, []string{"step", "result"})
)

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveUpstreamCall counts one Chess.com round trip.
func ObserveUpstreamCall(endpoint string, ok bool) {
	upstreamCalls.WithLabelValues(endpoint, outcome(ok)).Inc()
}

// ObserveRefreshUser counts one user processed by a refresh pass.
func ObserveRefreshUser(pass string, ok bool) {
	refreshUsers.WithLabelValues(pass, outcome(ok)).Inc()
}

func ObserveRefreshPass(pass string, elapsed time.Duration) {
	refreshDuration.WithLabelValues(pass).Observe(elapsed.Seconds())
}

// ObserveVerification counts an issue or confirm attempt; result is "ok" or an error code.
func ObserveVerification(step, result string) {
	verifications.WithLabelValues(step, result).Inc()
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request metrics. Routes are labelled with the chi pattern
// so path parameters such as usernames do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
