package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (database.Database, RedisClient, EventBus all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ReadinessChecks holds the set of dependencies probed by the readiness
// endpoint. Redis may be nil when caching is disabled; it is then reported
// as "disabled" and never probed.
type ReadinessChecks struct {
	Database HealthChecker
	Redis    HealthChecker
	EventBus HealthChecker
}

type readinessResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	EventBus string `json:"event_bus"`
}

// LivenessHandler returns 200 unconditionally. It reports only that the
// process is up and never touches any backend; storage reachability is
// surfaced by the readiness endpoint and, implicitly, by the item endpoints
// themselves.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadinessHandler returns an http.HandlerFunc that probes all registered
// checkers and reports degraded status if any of them fail.
func ReadinessHandler(checks ReadinessChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readinessResponse{
			Status:   "ok",
			Database: "ok",
			Redis:    "ok",
			EventBus: "ok",
		}

		if err := checks.Database.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
		}
		if checks.Redis == nil {
			resp.Redis = "disabled"
		} else if err := checks.Redis.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Redis = "unreachable"
		}
		if err := checks.EventBus.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.EventBus = "unreachable"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
