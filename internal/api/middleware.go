package api

import (
	"net/http"
	"strconv"
	"time"

	"purchase-service/internal/health"
	"purchase-service/internal/util"

	"github.com/gin-gonic/gin"
)

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// healthHandler serves the full tri-state report. Anything short of
// unhealthy keeps answering 200 so orchestrators do not flap on the
// (currently unreachable) degraded state.
func healthHandler(agg *health.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := agg.CheckHealth(c.Request.Context())

		code := http.StatusOK
		if report.Status == health.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, report)
	}
}

// livenessHandler answers whether the process is running at all
func livenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"time":   time.Now().Unix(),
		})
	}
}

// readinessHandler delegates to the health aggregation
func readinessHandler(agg *health.Aggregator) gin.HandlerFunc {
	return healthHandler(agg)
}
