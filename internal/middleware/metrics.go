package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/collab-engine/internal/metrics"
)

// Metrics records request counts and latency keyed by route pattern.
func Metrics(next http.Handler) http.Handler {
	h := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequests.WithLabelValues(path, r.Method, strconv.Itoa(status)).Inc()
		metrics.RequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	}

	return http.HandlerFunc(h)
}
