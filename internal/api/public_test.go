package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"purchase-service/internal/health"
	"purchase-service/internal/models"
	"purchase-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	messages []kafka.Message
}

func (p *capturePublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func newTestRouter(publisher *capturePublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)

	agg := health.NewAggregator("public-api-test",
		&health.ConnFlag{
			DepName:   "kafka",
			Connected: func() bool { return true },
			UpMsg:     "connected",
			DownMsg:   "disconnected",
		},
	)

	router := gin.New()
	handler := NewPublicHandler(service.NewPurchaseService(publisher), agg, "", time.Second)
	handler.SetupRoutes(router)
	return router
}

func TestSubmitPurchaseAccepted(t *testing.T) {
	publisher := &capturePublisher{}
	router := newTestRouter(publisher)

	body := `{"username":"alice","userId":"u1","price":42.5,"productName":"Widget"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.BuyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.PurchaseID)
	assert.Len(t, publisher.messages, 1)
}

func TestSubmitPurchaseRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero price", body: `{"username":"alice","userId":"u1","price":0}`},
		{name: "negative price", body: `{"username":"alice","userId":"u1","price":-5}`},
		{name: "missing username", body: `{"userId":"u1","price":10}`},
		{name: "missing userId", body: `{"username":"alice","price":10}`},
		{name: "not json", body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &capturePublisher{}
			router := newTestRouter(publisher)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, publisher.messages, "rejected intents must not be published")
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&capturePublisher{})

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var report health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, health.StatusHealthy, report.Status)
	assert.Equal(t, "public-api-test", report.Service)
}

func TestHealthUnhealthyWhenBrokerDown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	agg := health.NewAggregator("public-api-test",
		&health.ConnFlag{
			DepName:   "kafka",
			Connected: func() bool { return false },
			DownMsg:   "disconnected",
		},
	)

	router := gin.New()
	handler := NewPublicHandler(service.NewPurchaseService(&capturePublisher{}), agg, "", time.Second)
	handler.SetupRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProxyListWithoutUpstream(t *testing.T) {
	router := newTestRouter(&capturePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases?userId=u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProxyListForwardsToPrivateAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/purchases", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.GetBuysResponse{UserID: "u1", Total: 0, Purchases: []models.Purchase{}})
	}))
	defer upstream.Close()

	agg := health.NewAggregator("public-api-test")
	router := gin.New()
	handler := NewPublicHandler(service.NewPurchaseService(&capturePublisher{}), agg, upstream.URL, time.Second)
	handler.SetupRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases?userId=u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.GetBuysResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
}
