package strategy

import (
	"context"
	"fmt"

	"github.com/ZerosAndOnesLLC/OpenGRC-sub001/internal/domain"
)

// ConnectorSource 集成执行器读取连接器存储配置的接口
// 连接器不存在时返回 (nil, nil)
type ConnectorSource interface {
	GetConnector(ctx context.Context, id string) (*domain.Connector, error)
}

// IntegrationStrategy 第三方集成检查的分发器
// 根据连接器种类分发到对应的处理函数；未实现的种类返回 skipped 结论，
// 这样尚未覆盖的集成不会在合规报表中显示为失败
type IntegrationStrategy struct {
	src      ConnectorSource
	handlers map[string]connectorHandler
}

type connectorHandler func(ctx context.Context, conn *domain.Connector, check *domain.IntegrationCheck) (Verdict, error)

// NewIntegration 创建集成执行器
func NewIntegration(src ConnectorSource) *IntegrationStrategy {
	s := &IntegrationStrategy{src: src}
	// 按连接器种类注册处理函数；当前均为占位实现
	s.handlers = map[string]connectorHandler{
		"aws":    notImplemented("aws"),
		"okta":   notImplemented("okta"),
		"github": notImplemented("github"),
		"jira":   notImplemented("jira"),
	}
	return s
}

func (s *IntegrationStrategy) Execute(ctx context.Context, cfg *domain.AutomationConfig) (Verdict, error) {
	check := cfg.Integration
	if check == nil {
		return Verdict{}, fmt.Errorf("integration strategy requires an integration check config")
	}

	conn, err := s.src.GetConnector(ctx, check.ConnectorID)
	if err != nil {
		return Verdict{}, fmt.Errorf("load connector %q: %w", check.ConnectorID, err)
	}
	if conn == nil {
		return Verdict{
			Status: domain.StatusSkipped,
			Notes:  fmt.Sprintf("connector %q is not registered; check skipped", check.ConnectorID),
		}, nil
	}
	if !conn.Enabled {
		return Verdict{
			Status: domain.StatusSkipped,
			Notes:  fmt.Sprintf("connector %q is disabled; check skipped", check.ConnectorID),
		}, nil
	}

	handler, ok := s.handlers[conn.Kind]
	if !ok {
		return Verdict{
			Status: domain.StatusSkipped,
			Notes:  fmt.Sprintf("no automated check handler for connector kind %q; check skipped", conn.Kind),
		}, nil
	}
	return handler(ctx, conn, check)
}

// notImplemented 占位处理函数：集成检查尚未实现时返回 skipped
func notImplemented(kind string) connectorHandler {
	return func(ctx context.Context, conn *domain.Connector, check *domain.IntegrationCheck) (Verdict, error) {
		return Verdict{
			Status: domain.StatusSkipped,
			Notes:  fmt.Sprintf("automated checks for %s connectors are not implemented yet; check skipped", kind),
		}, nil
	}
}
