package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/indiramart/storefront-backend/pkg/metrics"
)

// Metrics records per-route request counts and latency. It resolves the chi
// route pattern after the handler runs so path params collapse to one label.
func Metrics(hm *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hm == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hm.IncInFlight()
			defer hm.DecInFlight()

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			hm.ObserveRequest(r.Method, route, defaultStatus(rec.status), time.Since(start))
		})
	}
}
