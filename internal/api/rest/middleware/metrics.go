package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/flowmesh/flowmesh/pkg/metrics"
	"github.com/go-chi/chi/v5/middleware"
)

// Metrics returns a middleware that records HTTP request metrics
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(ww.Status())

			m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}
