package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.False(t, cfg.Redis.Enabled)

	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 1000, cfg.Retry.BaseDelayMs)
	assert.Equal(t, 2.0, cfg.Retry.ExponentialBase)
	assert.NotEmpty(t, cfg.Retry.FallbackOrder)

	b := cfg.BudgetFor("workout_generation")
	assert.Equal(t, 8000, b.MaxInputTokens)
	assert.Equal(t, 4000, b.MaxOutputTokens)
	assert.Equal(t, 12000, b.MaxTotalTokens)
	assert.Equal(t, 0.10, b.MaxCostUSD)

	assert.Equal(t, 0.5, cfg.Estimator.OutputRatio)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "test")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Env)
	assert.True(t, cfg.Redis.Enabled)
}

func TestBudgetFor_UnknownNameFallsBack(t *testing.T) {
	os.Clearenv()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	b := cfg.BudgetFor("no_such_budget")
	assert.Equal(t, 8000, b.MaxInputTokens)
}

func TestLoadConfig_APIKeyResolution(t *testing.T) {
	os.Clearenv()
	t.Setenv("TEST_API_KEY", "sk-test-12345")

	dir := t.TempDir()
	configContent := `
providers:
  - id: "test-provider"
    name: "Test"
    type: "openai"
    api_key: "ENV:TEST_API_KEY"
    enabled: true
`
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(configContent), 0o600))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "sk-test-12345", cfg.Providers[0].APIKey)
}
