package domain

import (
	"encoding/json"
	"time"
)

// Connector 第三方集成连接器的存储配置
type Connector struct {
	ID        string          `json:"id"`   // 如 "aws-prod"
	Name      string          `json:"name"` // 展示名称
	Kind      string          `json:"kind"` // 连接器种类，如 aws/okta/jira
	Config    json.RawMessage `json:"config"`
	Enabled   bool            `json:"enabled"`
	CreatedAt time.Time       `json:"created_at"`
}
