package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	HTTPPort          string
	PostgresDSN       string
	RedisURL          string
	TickInterval      time.Duration // 调度周期
	ScanBatchSize     int           // 单轮扫描上限
	HTTPCheckTimeout  time.Duration // HTTP 探测的单次请求超时
	WorkerConcurrency int           // 单轮内逐项执行并发度
	Timezone          string
}

func Load() AppConfig {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=opengrc dbname=opengrc sslmode=disable"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	tick := 60 * time.Second
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			tick = d
		}
	}

	batch := 100
	if v := os.Getenv("SCAN_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			batch = parsed
		}
	}

	checkTimeout := 30 * time.Second
	if v := os.Getenv("HTTP_CHECK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			checkTimeout = d
		}
	}

	concurrency := 1
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			concurrency = parsed
		}
	}

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = "UTC"
	}

	return AppConfig{
		HTTPPort:          port,
		PostgresDSN:       dsn,
		RedisURL:          redisURL,
		TickInterval:      tick,
		ScanBatchSize:     batch,
		HTTPCheckTimeout:  checkTimeout,
		WorkerConcurrency: concurrency,
		Timezone:          tz,
	}
}
