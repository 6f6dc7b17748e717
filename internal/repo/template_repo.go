package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

const templateColumns = `
	id, title, description, task_type, assignee, priority,
	pattern, interval_count, anchor_day_of_week, anchor_day_of_month, anchor_month_of_year,
	cron_expr, end_at, max_occurrences,
	next_occurrence_at, last_occurrence_at, occurrences_created, active, created_at, updated_at
`

// InsertTemplate 插入一条任务模板
func InsertTemplate(ctx context.Context, q Querier, t *domain.TaskTemplate) error {
	_, err := q.Exec(ctx, `
		INSERT INTO task_templates (
			id, title, description, task_type, assignee, priority,
			pattern, interval_count, anchor_day_of_week, anchor_day_of_month, anchor_month_of_year,
			cron_expr, end_at, max_occurrences,
			next_occurrence_at, last_occurrence_at, occurrences_created, active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,NOW(),NOW())
	`, t.ID, t.Title, t.Description, t.TaskType, t.Assignee, t.Priority,
		t.Rule.Pattern, t.Rule.Interval, t.Rule.AnchorDayOfWeek, t.Rule.AnchorDayOfMonth, t.Rule.AnchorMonth,
		t.Rule.CronExpr, t.Rule.EndAt, t.Rule.MaxOccurrences,
		t.NextOccurrenceAt, t.LastOccurrenceAt, t.OccurrencesCreated, t.Active)
	return err
}

// GetTemplateByID 根据 ID 查询模板
func GetTemplateByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.TaskTemplate, error) {
	row := q.QueryRow(ctx, `SELECT `+templateColumns+` FROM task_templates WHERE id=$1`, id)
	return scanTemplate(row)
}

// ListTemplates 按启用状态过滤查询模板（nil 表示不过滤）
func ListTemplates(ctx context.Context, q Querier, active *bool) ([]domain.TaskTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM task_templates`
	args := []any{}
	if active != nil {
		query += ` WHERE active=$1`
		args = append(args, *active)
	}
	query += ` ORDER BY created_at`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	return res, rows.Err()
}

// ListDueTemplates 查询到期的启用模板，按到期时间升序，最多 limit 条
// 终止条件（end_at / max_occurrences）在调度推进侧判断，此处只按时间筛选
func ListDueTemplates(ctx context.Context, q Querier, now time.Time, limit int) ([]domain.TaskTemplate, error) {
	rows, err := q.Query(ctx, `
		SELECT `+templateColumns+`
		FROM task_templates
		WHERE active = TRUE AND next_occurrence_at IS NOT NULL AND next_occurrence_at <= $1
		ORDER BY next_occurrence_at ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	return res, rows.Err()
}

// UpdateTemplateSchedule 模板触发后写回调度状态
func UpdateTemplateSchedule(ctx context.Context, q Querier, t *domain.TaskTemplate) error {
	_, err := q.Exec(ctx, `
		UPDATE task_templates
		SET next_occurrence_at=$2, last_occurrence_at=$3, occurrences_created=$4, updated_at=NOW()
		WHERE id=$1
	`, t.ID, t.NextOccurrenceAt, t.LastOccurrenceAt, t.OccurrencesCreated)
	return err
}

// UpdateTemplateNextOccurrence 只更新下次触发时间（跳过、恢复指定时间点时使用）
func UpdateTemplateNextOccurrence(ctx context.Context, q Querier, id uuid.UUID, next *time.Time) error {
	_, err := q.Exec(ctx, `
		UPDATE task_templates
		SET next_occurrence_at=$2, updated_at=NOW()
		WHERE id=$1
	`, id, next)
	return err
}

// SetTemplateActive 启停模板（暂停/恢复）
func SetTemplateActive(ctx context.Context, q Querier, id uuid.UUID, active bool) error {
	_, err := q.Exec(ctx, `
		UPDATE task_templates
		SET active=$2, updated_at=NOW()
		WHERE id=$1
	`, id, active)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*domain.TaskTemplate, error) {
	var t domain.TaskTemplate
	if err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.TaskType, &t.Assignee, &t.Priority,
		&t.Rule.Pattern, &t.Rule.Interval, &t.Rule.AnchorDayOfWeek, &t.Rule.AnchorDayOfMonth, &t.Rule.AnchorMonth,
		&t.Rule.CronExpr, &t.Rule.EndAt, &t.Rule.MaxOccurrences,
		&t.NextOccurrenceAt, &t.LastOccurrenceAt, &t.OccurrencesCreated, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
