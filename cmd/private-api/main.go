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
	"purchase-service/internal/cache"
	"purchase-service/internal/health"
	"purchase-service/internal/service"
	"purchase-service/internal/store"
	"purchase-service/internal/util"
	"purchase-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load("private-api")

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting private API")

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

	db, err := store.NewStore(context.Background(), cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connected")

	listCache, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ListTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer listCache.Close()
	logger.Info("Redis connected")

	consumer, err := broker.NewConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to configure Kafka consumer: %v", err)
	}

	openCtx, openCancel := context.WithTimeout(context.Background(), cfg.Kafka.ConnectTimeout)
	if err := consumer.Open(openCtx); err != nil {
		openCancel()
		log.Fatalf("Failed to connect Kafka consumer: %v", err)
	}
	openCancel()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	purchaseWorker := worker.NewPurchaseWorker(consumer, db, listCache, cfg.Shutdown.GracePeriod)
	go func() {
		if err := purchaseWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Printf("Purchase worker error: %v", err)
		}
	}()

	aggregator := health.NewAggregator(cfg.Server.ServiceName,
		&health.ConnFlag{
			DepName:   "kafka",
			Connected: consumer.Connected,
			UpMsg:     "Kafka consumer connected",
			DownMsg:   "Kafka consumer disconnected",
		},
		&health.Ping{
			DepName: "postgres",
			PingFn:  db.Ping,
			UpMsg:   "Database connected",
		},
		&health.Memory{},
	)

	queryService := service.NewQueryService(db, listCache)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewPrivateHandler(queryService, aggregator)
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

	logger.Info("Shutting down private API")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Shutdown.GracePeriod)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop pulling new messages, then give the in-flight one the grace
	// period to finish before closing the consumer.
	workerCancel()
	select {
	case <-purchaseWorker.Done():
	case <-time.After(cfg.Shutdown.GracePeriod):
		log.Printf("Worker did not stop within grace period")
	}
	if err := purchaseWorker.Stop(); err != nil {
		log.Printf("Error closing consumer: %v", err)
	}

	logger.Info("Private API exited")
}
