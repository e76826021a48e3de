package api

import (
	"net/http"
	"strconv"

	"purchase-service/internal/health"
	"purchase-service/internal/service"
	"purchase-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PrivateHandler serves the consumer-side read API
type PrivateHandler struct {
	query  *service.QueryService
	health *health.Aggregator
	logger *zap.Logger
}

// NewPrivateHandler creates the private API handler
func NewPrivateHandler(query *service.QueryService, agg *health.Aggregator) *PrivateHandler {
	return &PrivateHandler{
		query:  query,
		health: agg,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *PrivateHandler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", healthHandler(h.health))
	router.GET("/health/live", livenessHandler())
	router.GET("/health/ready", readinessHandler(h.health))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/purchases", h.listPurchases)
	}
}

// listPurchases handles GET /api/v1/purchases?userId=xxx&limit=&offset=
func (h *PrivateHandler) listPurchases(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId query parameter is required",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.query.ListUserPurchases(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list purchases",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch purchases",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
