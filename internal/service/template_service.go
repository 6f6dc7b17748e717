package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/recurrence"
	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/repo"
)

// TemplateService 定期任务模板的业务逻辑：
// 生成实例、跳过、暂停/恢复，以及供调度器使用的到期扫描
type TemplateService struct {
	db *pgxpool.Pool
}

func NewTemplateService(db *pgxpool.Pool) *TemplateService {
	return &TemplateService{db: db}
}

type CreateTemplateParams struct {
	Title       string
	Description string
	TaskType    string
	Assignee    string
	Priority    int
	Rule        domain.RecurrenceRule
}

func (s *TemplateService) CreateTemplate(ctx context.Context, p CreateTemplateParams) (uuid.UUID, error) {
	if err := recurrence.Validate(p.Rule); err != nil {
		return uuid.Nil, err
	}
	now := time.Now()
	tpl := domain.TaskTemplate{
		ID:          uuid.New(),
		Title:       p.Title,
		Description: p.Description,
		TaskType:    p.TaskType,
		Assignee:    p.Assignee,
		Priority:    p.Priority,
		Rule:        p.Rule,
		Active:      true,
	}
	tpl.NextOccurrenceAt = recurrence.FirstDue(p.Rule, now)
	if err := repo.InsertTemplate(ctx, s.db, &tpl); err != nil {
		return uuid.Nil, err
	}
	return tpl.ID, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, id uuid.UUID) (*domain.TaskTemplate, error) {
	return repo.GetTemplateByID(ctx, s.db, id)
}

func (s *TemplateService) ListTemplates(ctx context.Context, active *bool) ([]domain.TaskTemplate, error) {
	return repo.ListTemplates(ctx, s.db, active)
}

// ListDue 查询到期模板，供调度器每轮扫描使用
func (s *TemplateService) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.TaskTemplate, error) {
	return repo.ListDueTemplates(ctx, s.db, now, limit)
}

// Fire 为到期模板生成一个任务实例并推进调度
// 单个事务内完成：插入实例、追加历史、写回模板调度状态，
// 保证实例与调度推进不会被并发读者观察到不一致
func (s *TemplateService) Fire(ctx context.Context, tpl domain.TaskTemplate, now time.Time) error {
	if !recurrence.IsDue(tpl, now) {
		return nil
	}
	scheduledFor := recurrence.Fire(&tpl, now)

	occ := domain.TaskOccurrence{
		ID:          uuid.New(),
		TemplateID:  tpl.ID,
		Title:       tpl.Title,
		Description: tpl.Description,
		TaskType:    tpl.TaskType,
		Assignee:    tpl.Assignee,
		Priority:    tpl.Priority,
		DueAt:       scheduledFor,
		Status:      "open",
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seq, err := repo.NextHistorySeq(ctx, tx, tpl.ID)
	if err != nil {
		return err
	}
	if err := repo.InsertOccurrence(ctx, tx, &occ); err != nil {
		return err
	}
	if err := repo.InsertHistory(ctx, tx, &domain.OccurrenceHistoryEntry{
		ID:           uuid.New(),
		TemplateID:   tpl.ID,
		Seq:          seq,
		OccurrenceID: &occ.ID,
		ScheduledFor: scheduledFor,
	}); err != nil {
		return err
	}
	if err := repo.UpdateTemplateSchedule(ctx, tx, &tpl); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SkipNext 跳过下一次触发：只追加一条 skipped 历史并推进 next_occurrence_at，
// 不生成实例、不增加计数
func (s *TemplateService) SkipNext(ctx context.Context, id uuid.UUID, reason string) error {
	tpl, err := repo.GetTemplateByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if tpl.NextOccurrenceAt == nil {
		return errors.New("template has no pending occurrence to skip")
	}
	now := time.Now()
	scheduledFor := recurrence.Skip(tpl, now)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seq, err := repo.NextHistorySeq(ctx, tx, tpl.ID)
	if err != nil {
		return err
	}
	if err := repo.InsertHistory(ctx, tx, &domain.OccurrenceHistoryEntry{
		ID:           uuid.New(),
		TemplateID:   tpl.ID,
		Seq:          seq,
		ScheduledFor: scheduledFor,
		Skipped:      true,
		SkipReason:   reason,
	}); err != nil {
		return err
	}
	if err := repo.UpdateTemplateNextOccurrence(ctx, tx, tpl.ID, tpl.NextOccurrenceAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Pause 暂停模板，next_occurrence_at 保持不动
func (s *TemplateService) Pause(ctx context.Context, id uuid.UUID) error {
	return repo.SetTemplateActive(ctx, s.db, id, false)
}

// Resume 恢复模板
// resumeFrom 指定时将 next_occurrence_at 重置到该时间点（跳过积压的错过周期）；
// 不指定时保留原值，已经过期的会在下个调度周期立即触发
func (s *TemplateService) Resume(ctx context.Context, id uuid.UUID, resumeFrom *time.Time) error {
	if resumeFrom != nil {
		if err := repo.UpdateTemplateNextOccurrence(ctx, s.db, id, resumeFrom); err != nil {
			return err
		}
	}
	return repo.SetTemplateActive(ctx, s.db, id, true)
}

func (s *TemplateService) ListHistory(ctx context.Context, id uuid.UUID) ([]domain.OccurrenceHistoryEntry, error) {
	return repo.ListHistory(ctx, s.db, id)
}

func (s *TemplateService) ListOccurrences(ctx context.Context, id uuid.UUID) ([]domain.TaskOccurrence, error) {
	return repo.ListOccurrencesByTemplate(ctx, s.db, id)
}
