package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"purchase-service/internal/health"
	"purchase-service/internal/models"
	"purchase-service/internal/service"
	"purchase-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PublicHandler serves the producer-side API: purchase submission plus a
// read proxy to the consumer service.
type PublicHandler struct {
	purchases     *service.PurchaseService
	health        *health.Aggregator
	privateAPIURL string
	client        *http.Client
	logger        *zap.Logger
}

// NewPublicHandler creates the public API handler
func NewPublicHandler(purchases *service.PurchaseService, agg *health.Aggregator, privateAPIURL string, requestTimeout time.Duration) *PublicHandler {
	return &PublicHandler{
		purchases:     purchases,
		health:        agg,
		privateAPIURL: privateAPIURL,
		client:        &http.Client{Timeout: requestTimeout},
		logger:        util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *PublicHandler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", healthHandler(h.health))
	router.GET("/health/live", livenessHandler())
	router.GET("/health/ready", readinessHandler(h.health))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/purchases", h.submitPurchase)
		v1.GET("/purchases", h.proxyListPurchases)
	}
}

// submitPurchase accepts a purchase intent and hands it to the broker.
// 202 means the broker durably accepted the event; the record becomes
// queryable later, once the consumer has persisted it.
func (h *PublicHandler) submitPurchase(c *gin.Context) {
	var intent models.PurchaseIntent

	if err := c.ShouldBindJSON(&intent); err != nil {
		c.JSON(http.StatusBadRequest, models.BuyResponse{
			Success: false,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	eventID, err := h.purchases.Submit(c.Request.Context(), &intent)
	if err != nil {
		if errors.Is(err, service.ErrInvalidIntent) {
			c.JSON(http.StatusBadRequest, models.BuyResponse{
				Success: false,
				Message: err.Error(),
			})
			return
		}

		c.JSON(http.StatusServiceUnavailable, models.BuyResponse{
			Success: false,
			Message: "Failed to submit purchase, please retry",
		})
		return
	}

	c.JSON(http.StatusAccepted, models.BuyResponse{
		Success:    true,
		Message:    "Purchase accepted for processing",
		PurchaseID: eventID,
	})
}

// proxyListPurchases forwards the read path to the consumer service
func (h *PublicHandler) proxyListPurchases(c *gin.Context) {
	if h.privateAPIURL == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Read path not configured",
		})
		return
	}

	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId query parameter is required",
		})
		return
	}

	target, err := url.Parse(h.privateAPIURL + "/api/v1/purchases")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid private API URL",
		})
		return
	}
	target.RawQuery = c.Request.URL.RawQuery

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to build upstream request",
		})
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("Failed to reach private API",
			zap.String("url", target.String()),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to fetch purchases",
		})
		return
	}
	defer resp.Body.Close()

	c.Status(resp.StatusCode)
	c.Header("Content-Type", resp.Header.Get("Content-Type"))
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.logger.Error("Failed to stream upstream response", zap.Error(err))
	}
}
