package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, 300*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "trade-notifications", cfg.NATS.Topic)
	assert.Equal(t, "FARMER_123", cfg.Trade.DefaultFarmerID)
	assert.Equal(t, "fixed", cfg.Trade.PaymentPolicy)
	assert.True(t, cfg.NATS.JetStream)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("AGRICONNECT_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGRICONNECT_LLM_PROVIDER", "anthropic")
	t.Setenv("AGRICONNECT_NATS_PORT", "4333")
	t.Setenv("AGRICONNECT_PUBLIC_GATEWAY_URL", "https://gw.example.com")
	t.Setenv("AGRICONNECT_AGENT_PRICE_AGENT", "http://10.0.0.5:10001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 4333, cfg.NATS.Port)
	assert.Equal(t, "https://gw.example.com", cfg.ProxyBaseURL())
	assert.Equal(t, "http://10.0.0.5:10001", cfg.Gateway.Agents["price_agent"])
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agriconnect.yaml")
	t.Setenv("TEST_BUYER_URL", "http://buyer:10002")

	data := `
llm:
  provider: mock
gateway:
  url: http://gateway:8080
  agents:
    buyer_agent: ${TEST_BUYER_URL}
  timeout: 2m
store:
  driver: memory
trade:
  payment_policy: random
  seed: 42
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "http://buyer:10002", cfg.Gateway.Agents["buyer_agent"])
	assert.Equal(t, 2*time.Minute, cfg.Gateway.Timeout)
	assert.Equal(t, "http://gateway:8080", cfg.ProxyBaseURL())
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, uint64(42), cfg.Trade.Seed)
	// Untouched sections keep their defaults.
	assert.Equal(t, ":8000", cfg.Discovery.Listen)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: gemini\ntrade:\n  payment_policy: roulette\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "gemini")
	assert.ErrorContains(t, err, "roulette")

	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadExampleFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-example")

	cfg, err := LoadFile("agriconnect.example.yaml")
	require.NoError(t, err)
	assert.Equal(t, "sk-example", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, "agent_cards", cfg.Discovery.CatalogDir)
	assert.Len(t, cfg.Gateway.Agents, 3)
	assert.Equal(t, "http://localhost:10003", cfg.Gateway.Agents["trade_coordination_agent"])
	assert.Equal(t, "http://localhost:8080", cfg.ProxyBaseURL())
}

func TestValidateTimeoutBounds(t *testing.T) {
	cases := []struct {
		name      string
		discovery time.Duration
		gateway   time.Duration
		wantErr   string
	}{
		{"at limits", MaxDiscoveryTimeout, MaxInvokeTimeout, ""},
		{"discovery too long", 31 * time.Second, MaxInvokeTimeout, "discovery timeout 31s exceeds 30s"},
		{"gateway too long", MaxDiscoveryTimeout, 301 * time.Second, "gateway timeout 5m1s exceeds 5m0s"},
		{"zero", 0, MaxInvokeTimeout, "timeouts must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			cfg.Discovery.Timeout = tc.discovery
			cfg.Gateway.Timeout = tc.gateway

			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoadRejectsTimeoutAboveLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  timeout: 10m\n"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "gateway timeout 10m0s exceeds 5m0s")
}
