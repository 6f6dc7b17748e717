// Package strategy 提供可插拔的自动化检查执行器
// 每个执行器对一份自动化配置做一次具体检查，返回 passed/failed/skipped 结论与诊断文本
// 执行错误（网络不通、解析失败）通过 error 返回，与语义上的 failed 结论严格区分
package strategy

import (
	"context"
	"fmt"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// Verdict 一次检查的语义结论
type Verdict struct {
	Status string // passed/failed/skipped
	Notes  string // 诊断文本
}

// Strategy 检查执行器接口
// 执行器必须无状态：相同配置与相同外部状态下结论一致
type Strategy interface {
	Execute(ctx context.Context, cfg *domain.AutomationConfig) (Verdict, error)
}

// Set 按配置类型标签分发到对应执行器
type Set struct {
	strategies map[string]Strategy
}

// NewSet 组装默认执行器集合（http 探测 + 集成分发）
func NewSet(httpStrategy, integrationStrategy Strategy) *Set {
	return &Set{strategies: map[string]Strategy{
		domain.CheckTypeHTTP:        httpStrategy,
		domain.CheckTypeIntegration: integrationStrategy,
	}}
}

// Execute 根据配置的类型标签选择执行器并执行
func (s *Set) Execute(ctx context.Context, cfg *domain.AutomationConfig) (Verdict, error) {
	if cfg == nil {
		return Verdict{}, fmt.Errorf("automation config is nil")
	}
	st, ok := s.strategies[cfg.Type]
	if !ok {
		return Verdict{}, fmt.Errorf("no strategy for config type %q", cfg.Type)
	}
	return st.Execute(ctx, cfg)
}
