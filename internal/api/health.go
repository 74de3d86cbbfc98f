package api

import (
	"context"
	"net/http"
	"time"

	"giveaway_bot/internal/metrics"
	"giveaway_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthRoutes struct {
	db Pinger
}

func NewHealthRoutes(handler gin.IRouter, db Pinger, gatherer prometheus.Gatherer) {
	r := &healthRoutes{db: db}

	handler.GET("/healthz", r.Liveness)
	handler.GET("/readyz", r.Readiness)
	handler.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))
}

func (r *healthRoutes) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (r *healthRoutes) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := r.db.Ping(ctx); err != nil {
		logger.Logger().Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
