package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/lease"
)

// TemplateRunner 调度器对模板侧的依赖（由 service.TemplateService 实现）
type TemplateRunner interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.TaskTemplate, error)
	Fire(ctx context.Context, tpl domain.TaskTemplate, now time.Time) error
}

// VerificationRunner 调度器对自动化测试侧的依赖（由 service.VerificationService 实现）
type VerificationRunner interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Verification, error)
	Run(ctx context.Context, v domain.Verification, now time.Time) (string, error)
}

type Config struct {
	Interval    time.Duration // 调度周期
	BatchSize   int           // 单轮扫描的最大条数
	Concurrency int           // 单轮内逐项执行的并发度，1 为串行
	Timezone    string        // 推进日历计算所用时区
}

// Verifier 负责：周期性扫描到期的任务模板与自动化测试，
// 逐项执行并记录结果、推进日程；单项失败不中断本轮其余工作
type Verifier struct {
	templates     TemplateRunner
	verifications VerificationRunner
	rdb           *redis.Client
	lock          *lease.TickLock

	pool     *Pool
	ticker   *time.Ticker
	interval time.Duration
	batch    int
	timezone *time.Location
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewVerifier 创建调度器
// rdb 与 lock 可为 nil（不写指标、不做多实例互斥）
func NewVerifier(ctx context.Context, templates TemplateRunner, verifications VerificationRunner, rdb *redis.Client, lock *lease.TickLock, cfg Config) (*Verifier, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Verifier{
		templates:     templates,
		verifications: verifications,
		rdb:           rdb,
		lock:          lock,
		pool:          NewPool(cfg.Concurrency),
		ticker:        time.NewTicker(cfg.Interval),
		interval:      cfg.Interval,
		batch:         cfg.BatchSize,
		timezone:      loc,
		ctx:           cctx,
		cancel:        cancel,
	}, nil
}

// Start 启动调度循环，每隔 interval 执行一次 tickOnce，阻塞直到 Stop
// 一轮完整执行完（包括逐项工作）才会响应下一次计时，周期之间不重叠
func (v *Verifier) Start() {
	log.Info().Dur("interval", v.interval).Int("batch", v.batch).Msg("verifier started")
	for {
		select {
		case <-v.ctx.Done():
			log.Info().Msg("verifier stopped")
			return
		case <-v.ticker.C:
			if err := v.tickOnce(v.ctx); err != nil {
				log.Error().Err(err).Msg("tick failed")
			}
		}
	}
}

// Stop 停止调度循环
func (v *Verifier) Stop() {
	v.cancel()
	v.ticker.Stop()
}

// tickOnce 一轮调度：扫描到期模板与测试，逐项执行
// 单项错误记录日志后继续，保证每条到期记录至少每轮被尝试一次
func (v *Verifier) tickOnce(ctx context.Context) error {
	now := time.Now().In(v.timezone)

	// 多实例互斥：拿不到锁说明另一个实例正在执行本轮
	if v.lock != nil {
		got, err := v.lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if !got {
			log.Debug().Msg("tick lock held by another instance, skipping")
			return nil
		}
		defer v.lock.Release(ctx)
	}

	var fired, passed, failed, skipped atomic.Int64

	// 到期模板 → 生成任务实例
	templates, err := v.templates.ListDue(ctx, now, v.batch)
	if err != nil {
		return err
	}
	v.pool.Run(ctx, len(templates), func(ctx context.Context, i int) {
		tpl := templates[i]
		if err := v.templates.Fire(ctx, tpl, now); err != nil {
			log.Error().Err(err).Str("template", tpl.ID.String()).Msg("fire occurrence failed")
			return
		}
		fired.Add(1)
	})

	// 到期自动化测试 → 执行检查并记录
	verifications, err := v.verifications.ListDue(ctx, now, v.batch)
	if err != nil {
		return err
	}
	v.pool.Run(ctx, len(verifications), func(ctx context.Context, i int) {
		item := verifications[i]
		status, err := v.verifications.Run(ctx, item, now)
		if err != nil {
			// 执行错误已在 Run 内降级，走到这里说明持久化失败；
			// next_due_at 未推进，下一轮扫描会自然重试
			log.Error().Err(err).Str("verification", item.ID.String()).Msg("record result failed")
			return
		}
		switch status {
		case domain.StatusPassed:
			passed.Add(1)
		case domain.StatusFailed:
			failed.Add(1)
		case domain.StatusSkipped:
			skipped.Add(1)
		}
	})

	v.writeMetrics(ctx, now, len(templates), len(verifications), fired.Load(), passed.Load(), failed.Load(), skipped.Load())
	log.Info().
		Int("due_templates", len(templates)).
		Int("due_verifications", len(verifications)).
		Int64("fired", fired.Load()).
		Int64("passed", passed.Load()).
		Int64("failed", failed.Load()).
		Int64("skipped", skipped.Load()).
		Msg("tick")
	return nil
}

func (v *Verifier) writeMetrics(ctx context.Context, now time.Time, dueTemplates, dueVerifications int, fired, passed, failed, skipped int64) {
	if v.rdb == nil {
		return
	}
	_ = v.rdb.Incr(ctx, "metrics:verifier:ticks").Err()
	_ = v.rdb.HSet(ctx, "metrics:verifier:last", map[string]any{
		"time":              now.Format(time.RFC3339),
		"due_templates":     dueTemplates,
		"due_verifications": dueVerifications,
		"fired":             fired,
		"passed":            passed,
		"failed":            failed,
		"skipped":           skipped,
	}).Err()
}
