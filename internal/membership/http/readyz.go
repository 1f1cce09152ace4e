package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/pkg/httpx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/membersdk"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

const readinessTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and the status of the database and session store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	membersdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	membersdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		overallStatus := "ok"
		statusCode := http.StatusOK

		for name, check := range checks {
			if err := check(ctx); err != nil {
				// Details go to the log only; the probe is unauthenticated.
				slogx.FromContext(ctx).Warn("readiness check failed", "check", name, "error", err)
				results[name] = "error"
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		response := membersdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  results,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
