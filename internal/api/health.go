package api

import (
	"context"
	"net/http"
	"time"

	"github.com/safeguardai/console/internal/middleware"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// handleHealth reports reachability of the console's collaborators.
// The detection backend being offline does not fail the console; the
// directory or session store failing does.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	logger.Debug("Health check requested")

	checks := make(map[string]string)
	healthy := true

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Pool().Ping(ctx); err != nil {
			logger.Warn("Database health check failed", "error", err)
			checks["directory"] = "failed: " + err.Error()
			healthy = false
		} else {
			checks["directory"] = "ok"
		}
	}

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis health check failed", "error", err)
			checks["sessions"] = "failed: " + err.Error()
			healthy = false
		} else {
			checks["sessions"] = "ok"
		}
	}

	if s.backend != nil {
		if err := s.backend.Health(ctx); err != nil {
			checks["detection_backend"] = "offline"
		} else {
			checks["detection_backend"] = "ok"
		}
	}

	resp := healthResponse{Status: "ok", Timestamp: time.Now().UTC(), Checks: checks}
	if !healthy {
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
