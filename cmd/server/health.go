package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 3 * time.Second

// healthCheck pings one dependency.
type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// healthHandler reports 200 when every dependency answers, 503 otherwise.
func healthHandler(logger *zap.Logger, checks ...healthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		body := gin.H{"success": true, "status": "healthy"}
		code := http.StatusOK
		for _, check := range checks {
			key := check.name
			if err := check.ping(ctx); err != nil {
				logger.Warn("health check failed", zap.String("dependency", key), zap.Error(err))
				body[key] = "disconnected"
				body["success"] = false
				body["status"] = "unhealthy"
				code = http.StatusServiceUnavailable
				continue
			}
			body[key] = "connected"
		}
		c.JSON(code, body)
	}
}
