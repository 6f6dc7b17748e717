// 单进程模式：API 与调度器跑在同一个进程里，适合小规模部署
// 分离部署见 cmd/api 与 cmd/scheduler
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/config"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/db"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/events"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/http/handler"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/lease"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/service"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/strategy"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/worker"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Init(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres init failed")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema failed")
	}

	rdb, err := events.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis init failed")
	}
	defer rdb.Close()

	connectorSvc := service.NewConnectorService(pool)
	strategies := strategy.NewSet(
		strategy.NewHTTP(cfg.HTTPCheckTimeout),
		strategy.NewIntegration(connectorSvc),
	)
	templateSvc := service.NewTemplateService(pool)
	verificationSvc := service.NewVerificationService(pool, rdb, strategies)

	// 后台调度器
	instanceID := uuid.NewString()
	go worker.StartHeartbeat(context.Background(), rdb, instanceID, 90*time.Second, 30*time.Second)
	lock := lease.NewTickLock(rdb, instanceID, 2*cfg.TickInterval)
	v, err := worker.NewVerifier(context.Background(), templateSvc, verificationSvc, rdb, lock, worker.Config{
		Interval:    cfg.TickInterval,
		BatchSize:   cfg.ScanBatchSize,
		Concurrency: cfg.WorkerConcurrency,
		Timezone:    cfg.Timezone,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("new verifier failed")
	}
	go v.Start()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		v.Stop()
		os.Exit(0)
	}()

	engine := gin.Default()
	healthH := handler.NewHealthHandler(pool, rdb)
	templateH := handler.NewTemplateHandler(templateSvc)
	verificationH := handler.NewVerificationHandler(verificationSvc)
	connectorH := handler.NewConnectorHandler(connectorSvc)
	metricsH := handler.NewMetricsHandler(rdb)

	engine.GET("/healthz", healthH.Healthz)
	engine.GET("/readyz", healthH.Readyz)

	api := engine.Group("/api/v1")
	{
		api.POST("/templates", templateH.CreateTemplate)
		api.GET("/templates", templateH.ListTemplates)
		api.GET("/templates/:id", templateH.GetTemplate)
		api.POST("/templates/:id/skip", templateH.SkipNext)
		api.POST("/templates/:id/pause", templateH.Pause)
		api.POST("/templates/:id/resume", templateH.Resume)
		api.GET("/templates/:id/history", templateH.ListHistory)
		api.GET("/templates/:id/occurrences", templateH.ListOccurrences)

		api.POST("/verifications", verificationH.CreateVerification)
		api.GET("/verifications", verificationH.ListVerifications)
		api.GET("/verifications/:id", verificationH.GetVerification)
		api.GET("/verifications/:id/results", verificationH.ListResults)
		api.POST("/verifications/:id/run", verificationH.TriggerNow)

		api.POST("/connectors", connectorH.RegisterConnector)
		api.GET("/connectors", connectorH.ListConnectors)

		api.GET("/metrics/verifier", metricsH.GetVerifierMetrics)
		api.GET("/results/recent", metricsH.ListRecentResults)
	}

	log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
	if err := engine.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
