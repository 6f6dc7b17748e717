package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/config"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/db"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/events"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/lease"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/service"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/strategy"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/worker"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx := context.Background()

	// 加载配置
	cfg := config.Load()

	// 初始化 Postgres
	pool, err := db.Init(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres init failed")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema failed")
	}

	// 初始化 Redis
	rdb, err := events.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis init failed")
	}
	defer rdb.Close()

	// 组装调度器
	connectorSvc := service.NewConnectorService(pool)
	strategies := strategy.NewSet(
		strategy.NewHTTP(cfg.HTTPCheckTimeout),
		strategy.NewIntegration(connectorSvc),
	)
	templateSvc := service.NewTemplateService(pool)
	verificationSvc := service.NewVerificationService(pool, rdb, strategies)

	instanceID := uuid.NewString()

	// 实例心跳，供运维确认调度器存活
	go worker.StartHeartbeat(ctx, rdb, instanceID, 90*time.Second, 30*time.Second)

	// 周期锁的 TTL 取两倍调度周期，实例崩溃后锁自然过期
	lock := lease.NewTickLock(rdb, instanceID, 2*cfg.TickInterval)

	v, err := worker.NewVerifier(ctx, templateSvc, verificationSvc, rdb, lock, worker.Config{
		Interval:    cfg.TickInterval,
		BatchSize:   cfg.ScanBatchSize,
		Concurrency: cfg.WorkerConcurrency,
		Timezone:    cfg.Timezone,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("new verifier failed")
	}

	// 优雅退出
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		v.Stop()
	}()

	v.Start()
}
