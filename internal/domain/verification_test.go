package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutomationConfigValidate(t *testing.T) {
	ok := AutomationConfig{
		Type: CheckTypeHTTP,
		HTTP: &HTTPCheck{Endpoint: "https://status.internal/healthz"},
	}
	assert.NoError(t, ok.Validate())

	ok = AutomationConfig{
		Type:        CheckTypeIntegration,
		Integration: &IntegrationCheck{ConnectorID: "aws-prod"},
	}
	assert.NoError(t, ok.Validate())

	t.Run("type and variant must match", func(t *testing.T) {
		c := AutomationConfig{Type: CheckTypeHTTP}
		assert.Error(t, c.Validate())

		c = AutomationConfig{Type: CheckTypeHTTP, Integration: &IntegrationCheck{ConnectorID: "x"}}
		assert.Error(t, c.Validate())

		c = AutomationConfig{Type: CheckTypeIntegration, Integration: &IntegrationCheck{}}
		assert.Error(t, c.Validate())
	})
	t.Run("unknown type rejected", func(t *testing.T) {
		c := AutomationConfig{Type: "ssh"}
		assert.Error(t, c.Validate())
	})
	t.Run("empty endpoint rejected", func(t *testing.T) {
		c := AutomationConfig{Type: CheckTypeHTTP, HTTP: &HTTPCheck{}}
		assert.Error(t, c.Validate())
	})
}

func TestAutomationConfigRoundTrip(t *testing.T) {
	// JSONB 持久化读回后配置必须等价
	in := AutomationConfig{
		Type: CheckTypeHTTP,
		HTTP: &HTTPCheck{
			Endpoint:         "https://api.example.com/compliance",
			Method:           "POST",
			Headers:          map[string]string{"Authorization": "Bearer tok"},
			Body:             `{"scope":"prod"}`,
			ExpectedStatuses: []int{200, 202},
			ValidationPath:   "result.compliant",
			ExpectedValue:    true,
		},
	}

	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out AutomationConfig
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
	assert.Nil(t, out.Integration)
}
