// File: internal/llmclient/factory_test.go
package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_Groq(t *testing.T) {
	cfg := validModelConfig()
	client, err := NewClient(context.Background(), cfg, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &GroqClient{}, client)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	cfg := validModelConfig()
	cfg.Provider = "watson"

	client, err := NewClient(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "unknown or unsupported LLM provider")
}
