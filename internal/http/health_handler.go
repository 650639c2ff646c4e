package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger verifica una dependencia (store, redis).
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	logger  *zap.Logger
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthHandler(logger *zap.Logger, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// Healthz maneja GET /healthz.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
