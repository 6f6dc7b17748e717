package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// 测试类型
const (
	TestTypeManual    = "manual"
	TestTypeAutomated = "automated" // 只有 automated 会被调度器拾取
)

// 执行结论
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// 自动化配置类型标签
const (
	CheckTypeHTTP        = "http"
	CheckTypeIntegration = "integration"
)

// HTTPCheck HTTP 探测检查配置
type HTTPCheck struct {
	Endpoint         string            `json:"endpoint"`
	Method           string            `json:"method,omitempty"` // 默认 GET
	Headers          map[string]string `json:"headers,omitempty"`
	Body             string            `json:"body,omitempty"`
	ExpectedStatuses []int             `json:"expected_statuses,omitempty"` // 默认 {200,201,204}
	ValidationPath   string            `json:"validation_path,omitempty"`   // 点分路径，如 "status.ok"
	ExpectedValue    any               `json:"expected_value,omitempty"`    // 路径处期望的值，结构相等比较
}

// IntegrationCheck 第三方连接器检查配置
type IntegrationCheck struct {
	ConnectorID string         `json:"connector_id"`
	Payload     map[string]any `json:"payload,omitempty"` // 连接器自定义参数
}

// AutomationConfig 带类型标签的自动化检查配置，按 JSONB 持久化
type AutomationConfig struct {
	Type        string            `json:"type"` // http / integration
	HTTP        *HTTPCheck        `json:"http,omitempty"`
	Integration *IntegrationCheck `json:"integration,omitempty"`
}

// Validate 校验标签与对应变体是否匹配
func (c AutomationConfig) Validate() error {
	switch c.Type {
	case CheckTypeHTTP:
		if c.HTTP == nil || c.HTTP.Endpoint == "" {
			return errors.New("http check requires an endpoint")
		}
	case CheckTypeIntegration:
		if c.Integration == nil || c.Integration.ConnectorID == "" {
			return errors.New("integration check requires a connector_id")
		}
	default:
		return errors.New("unknown automation config type: " + c.Type)
	}
	return nil
}

// Verification 自动化控制测试（control test）
type Verification struct {
	ID            uuid.UUID         `json:"id"`
	ControlID     uuid.UUID         `json:"control_id"` // 所属控制项
	Name          string            `json:"name"`
	TestType      string            `json:"test_type"` // manual/automated
	Config        *AutomationConfig `json:"automation_config,omitempty"`
	Frequency     string            `json:"frequency"`   // 宽松的频率字符串，作为重复规则输入
	NextDueAt     *time.Time        `json:"next_due_at"` // 为空表示从未执行过，优先被拾取
	EndAt         *time.Time        `json:"end_at,omitempty"`
	MaxRuns       *int              `json:"max_runs,omitempty"`
	RunsCompleted int               `json:"runs_completed"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// VerificationResult 执行结果，只追加；调度状态在 Verification 上而不在结果上
type VerificationResult struct {
	ID             uuid.UUID   `json:"id"`
	VerificationID uuid.UUID   `json:"verification_id"`
	PerformedBy    string      `json:"performed_by,omitempty"` // 自动执行时为空
	ExecutedAt     time.Time   `json:"executed_at"`
	Status         string      `json:"status"` // passed/failed/skipped
	Notes          string      `json:"notes"`
	EvidenceIDs    []uuid.UUID `json:"evidence_ids,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
