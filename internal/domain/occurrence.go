package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskOccurrence 由模板生成的具体任务实例，独立跟踪
type TaskOccurrence struct {
	ID          uuid.UUID `json:"id"`
	TemplateID  uuid.UUID `json:"template_id"` // 来源模板
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TaskType    string    `json:"task_type"`
	Assignee    string    `json:"assignee"`
	Priority    int       `json:"priority"`
	DueAt       time.Time `json:"due_at"` // 到期时间，取自模板的 next_occurrence_at
	Status      string    `json:"status"` // open/completed/cancelled
	CreatedAt   time.Time `json:"created_at"`
}

// OccurrenceHistoryEntry 调度历史审计记录，只追加不修改
// 每次模板推进（生成实例或跳过）都写入一条
type OccurrenceHistoryEntry struct {
	ID           uuid.UUID  `json:"id"`
	TemplateID   uuid.UUID  `json:"template_id"`
	Seq          int        `json:"seq"`                     // 序号，从 1 递增
	OccurrenceID *uuid.UUID `json:"occurrence_id,omitempty"` // 跳过时为空
	ScheduledFor time.Time  `json:"scheduled_for"`           // 本次计划触发的时间点
	Skipped      bool       `json:"skipped"`
	SkipReason   string     `json:"skip_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
