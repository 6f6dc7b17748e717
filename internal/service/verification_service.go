package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/events"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/recurrence"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/repo"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/strategy"
)

// VerificationService 自动化控制测试的业务逻辑
// 调度器每轮扫描与操作员 trigger-now 共用同一条执行+记录路径
type VerificationService struct {
	db         *pgxpool.Pool
	rdb        *redis.Client
	strategies *strategy.Set
}

func NewVerificationService(db *pgxpool.Pool, rdb *redis.Client, strategies *strategy.Set) *VerificationService {
	return &VerificationService{db: db, rdb: rdb, strategies: strategies}
}

type CreateVerificationParams struct {
	ControlID uuid.UUID
	Name      string
	TestType  string
	Config    *domain.AutomationConfig
	Frequency string
	EndAt     *time.Time
	MaxRuns   *int
}

func (s *VerificationService) CreateVerification(ctx context.Context, p CreateVerificationParams) (uuid.UUID, error) {
	if p.TestType != domain.TestTypeManual && p.TestType != domain.TestTypeAutomated {
		return uuid.Nil, fmt.Errorf("invalid test_type %q", p.TestType)
	}
	if p.TestType == domain.TestTypeAutomated {
		if p.Config == nil {
			return uuid.Nil, errors.New("automated test requires an automation_config")
		}
		if err := p.Config.Validate(); err != nil {
			return uuid.Nil, err
		}
	}
	v := domain.Verification{
		ID:        uuid.New(),
		ControlID: p.ControlID,
		Name:      p.Name,
		TestType:  p.TestType,
		Config:    p.Config,
		Frequency: p.Frequency,
		EndAt:     p.EndAt,
		MaxRuns:   p.MaxRuns,
		// next_due_at 留空：从未执行过的测试在首轮扫描中优先被拾取
	}
	if err := repo.InsertVerification(ctx, s.db, &v); err != nil {
		return uuid.Nil, err
	}
	return v.ID, nil
}

func (s *VerificationService) GetVerification(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	return repo.GetVerificationByID(ctx, s.db, id)
}

func (s *VerificationService) ListVerifications(ctx context.Context) ([]domain.Verification, error) {
	return repo.ListVerifications(ctx, s.db)
}

func (s *VerificationService) ListResults(ctx context.Context, id uuid.UUID, limit int) ([]domain.VerificationResult, error) {
	return repo.ListResultsByVerification(ctx, s.db, id, limit)
}

// ListDue 查询到期的自动化测试，供调度器每轮扫描使用
func (s *VerificationService) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Verification, error) {
	return repo.ListDueVerifications(ctx, s.db, now, limit)
}

// Run 执行一次检查并记录结果（调度器与 trigger-now 共用）
// 执行错误在此降级为 failed 结果、错误文本写入 notes，不再向上传播，
// 保证一条记录的失败不会中断同一轮的其余工作
// 结果追加与 next_due_at 推进放在同一个事务里，避免
// “结果丢了但日程推进了”或“反复重跑”两种不一致
func (s *VerificationService) Run(ctx context.Context, v domain.Verification, now time.Time) (string, error) {
	verdict, execErr := s.strategies.Execute(ctx, v.Config)
	if execErr != nil {
		verdict = strategy.Verdict{
			Status: domain.StatusFailed,
			Notes:  "execution error: " + execErr.Error(),
		}
	}

	res := domain.VerificationResult{
		ID:             uuid.New(),
		VerificationID: v.ID,
		ExecutedAt:     now,
		Status:         verdict.Status,
		Notes:          verdict.Notes,
	}
	recurrence.AdvanceVerification(&v, now)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if err := repo.InsertResult(ctx, tx, &res); err != nil {
		return "", err
	}
	if err := repo.UpdateVerificationSchedule(ctx, tx, &v); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	// 事件发布尽力而为，不影响已提交的记录
	if s.rdb != nil {
		if err := events.PublishResult(ctx, s.rdb, events.NewResultEvent(&v, &res)); err != nil {
			log.Warn().Err(err).Str("verification", v.ID.String()).Msg("publish result event failed")
		}
	}
	return res.Status, nil
}

// TriggerNow 操作员手动触发一次执行，绕过调度周期但复用同一条记录路径
func (s *VerificationService) TriggerNow(ctx context.Context, id uuid.UUID) (string, error) {
	v, err := repo.GetVerificationByID(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	if v.TestType != domain.TestTypeAutomated || v.Config == nil {
		return "", errors.New("verification is not automated or has no automation config")
	}
	return s.Run(ctx, *v, time.Now())
}
