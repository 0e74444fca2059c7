package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/indiramart/storefront-backend/api/responses"
	"github.com/indiramart/storefront-backend/pkg/db"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
	"github.com/indiramart/storefront-backend/pkg/redis"
)

const healthCheckTimeout = 2 * time.Second

// HealthLive reports process liveness.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness by pinging the database and Redis.
func HealthReady(dbPinger db.Pinger, redisPinger redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{"db": "ok", "redis": "ok"}
		healthy := true

		if dbPinger == nil {
			checks["db"] = "not configured"
			healthy = false
		} else if err := dbPinger.Ping(ctx); err != nil {
			checks["db"] = "unreachable"
			healthy = false
		}
		if redisPinger == nil {
			checks["redis"] = "not configured"
			healthy = false
		} else if err := redisPinger.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
					WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
