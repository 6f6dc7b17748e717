package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// InsertOccurrence 插入一条由模板生成的任务实例
func InsertOccurrence(ctx context.Context, q Querier, o *domain.TaskOccurrence) error {
	_, err := q.Exec(ctx, `
		INSERT INTO task_occurrences (id, template_id, title, description, task_type, assignee, priority, due_at, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
	`, o.ID, o.TemplateID, o.Title, o.Description, o.TaskType, o.Assignee, o.Priority, o.DueAt, o.Status)
	return err
}

// ListOccurrencesByTemplate 查询某模板生成的全部任务实例
func ListOccurrencesByTemplate(ctx context.Context, q Querier, templateID uuid.UUID) ([]domain.TaskOccurrence, error) {
	rows, err := q.Query(ctx, `
		SELECT id, template_id, title, description, task_type, assignee, priority, due_at, status, created_at
		FROM task_occurrences
		WHERE template_id=$1
		ORDER BY due_at
	`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.TaskOccurrence
	for rows.Next() {
		var o domain.TaskOccurrence
		if err := rows.Scan(&o.ID, &o.TemplateID, &o.Title, &o.Description, &o.TaskType, &o.Assignee, &o.Priority, &o.DueAt, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

// NextHistorySeq 计算模板下一条历史记录的序号（从 1 开始）
func NextHistorySeq(ctx context.Context, q Querier, templateID uuid.UUID) (int, error) {
	var seq int
	err := q.QueryRow(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM occurrence_history WHERE template_id=$1
	`, templateID).Scan(&seq)
	return seq, err
}

// InsertHistory 追加一条调度历史记录
func InsertHistory(ctx context.Context, q Querier, h *domain.OccurrenceHistoryEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO occurrence_history (id, template_id, seq, occurrence_id, scheduled_for, skipped, skip_reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
	`, h.ID, h.TemplateID, h.Seq, h.OccurrenceID, h.ScheduledFor, h.Skipped, h.SkipReason)
	return err
}

// ListHistory 按序号升序查询模板的调度历史
func ListHistory(ctx context.Context, q Querier, templateID uuid.UUID) ([]domain.OccurrenceHistoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, template_id, seq, occurrence_id, scheduled_for, skipped, skip_reason, created_at
		FROM occurrence_history
		WHERE template_id=$1
		ORDER BY seq
	`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.OccurrenceHistoryEntry
	for rows.Next() {
		var h domain.OccurrenceHistoryEntry
		var reason *string
		if err := rows.Scan(&h.ID, &h.TemplateID, &h.Seq, &h.OccurrenceID, &h.ScheduledFor, &h.Skipped, &reason, &h.CreatedAt); err != nil {
			return nil, err
		}
		if reason != nil {
			h.SkipReason = *reason
		}
		res = append(res, h)
	}
	return res, rows.Err()
}
