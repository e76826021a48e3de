package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"purchase-service/config"
	"purchase-service/internal/api"
	"purchase-service/internal/broker"
	"purchase-service/internal/health"
	"purchase-service/internal/service"
	"purchase-service/internal/util"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load("public-api")

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting public API")

	tp, err := util.InitTracer(cfg.Server.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	producer, err := broker.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to configure Kafka producer: %v", err)
	}

	openCtx, openCancel := context.WithTimeout(context.Background(), cfg.Kafka.ConnectTimeout)
	if err := producer.Open(openCtx); err != nil {
		openCancel()
		log.Fatalf("Failed to connect Kafka producer: %v", err)
	}
	openCancel()
	defer producer.Close()

	purchaseService := service.NewPurchaseService(producer)

	aggregator := health.NewAggregator(cfg.Server.ServiceName,
		&health.ConnFlag{
			DepName:   "kafka",
			Connected: producer.Connected,
			UpMsg:     "Kafka producer connected",
			DownMsg:   "Kafka producer disconnected",
		},
		&health.Memory{},
	)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewPublicHandler(purchaseService, aggregator, cfg.Server.PrivateAPIURL, cfg.Server.RequestTimeout)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening on port " + cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down public API")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Shutdown.GracePeriod)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// producer.Close runs deferred and flushes any in-flight publish
	logger.Info("Public API exited")
}
