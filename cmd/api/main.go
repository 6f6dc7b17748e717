package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/config"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/db"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/events"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/http/handler"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/service"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/strategy"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// 加载配置
	cfg := config.Load()

	// 初始化数据库连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Init(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres init failed")
	}
	defer pool.Close()

	// 确保最小表结构存在
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema failed")
	}

	// 初始化 Redis
	rdb, err := events.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis init failed")
	}
	defer rdb.Close()

	// 组装服务与路由
	connectorSvc := service.NewConnectorService(pool)
	strategies := strategy.NewSet(
		strategy.NewHTTP(cfg.HTTPCheckTimeout),
		strategy.NewIntegration(connectorSvc),
	)
	templateSvc := service.NewTemplateService(pool)
	verificationSvc := service.NewVerificationService(pool, rdb, strategies)

	engine := gin.Default()
	healthH := handler.NewHealthHandler(pool, rdb)
	templateH := handler.NewTemplateHandler(templateSvc)
	verificationH := handler.NewVerificationHandler(verificationSvc)
	connectorH := handler.NewConnectorHandler(connectorSvc)
	metricsH := handler.NewMetricsHandler(rdb)

	// 健康与就绪
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

	log.Info().Str("port", cfg.HTTPPort).Msg("starting api server")
	if err := engine.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal().Err(err).Msg("api server exited")
	}
}
