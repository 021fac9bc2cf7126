package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthHandler handles GET /health. Checks this process's own
// components (store, worker pool) and never external dependencies
// (the Call Fabric, the LLM provider), so a third-party outage doesn't
// flap this service's own health.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := withTimeout(c, 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	if err := s.store.Ping(ctx); err != nil {
		status = healthStatusUnhealthy
		checks["store"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		checks["store"] = HealthCheck{Status: healthStatusHealthy}
	}

	if s.pool != nil {
		poolHealth := s.pool.Health()
		if poolHealth != nil && !poolHealth.IsHealthy {
			if status == healthStatusHealthy {
				status = healthStatusDegraded
			}
			checks["worker_pool"] = HealthCheck{Status: healthStatusDegraded}
		} else {
			checks["worker_pool"] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{Status: status, Checks: checks})
}
