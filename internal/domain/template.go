package domain

import (
	"time"

	"github.com/google/uuid"
)

type TaskTemplate struct {
	ID                 uuid.UUID      `json:"id"`                  // 模板唯一标识
	Title              string         `json:"title"`               // 任务标题
	Description        string         `json:"description"`         // 任务描述
	TaskType           string         `json:"task_type"`           // 任务类型
	Assignee           string         `json:"assignee"`            // 负责人
	Priority           int            `json:"priority"`            // 优先级
	Rule               RecurrenceRule `json:"rule"`                // 重复规则
	NextOccurrenceAt   *time.Time     `json:"next_occurrence_at"`  // 下次生成实例的时间
	LastOccurrenceAt   *time.Time     `json:"last_occurrence_at"`  // 上次生成实例的时间
	OccurrencesCreated int            `json:"occurrences_created"` // 已生成实例计数
	Active             bool           `json:"active"`              // 是否启用（暂停时为 false）
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
