package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"real4d-backend/internal/models"
)

// Pinger is a dependency the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness. When checks are given they are pinged and
// any failure turns the response into a 503.
func HealthHandler(checks ...Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, models.HealthResponse{Status: "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
	}
}
