package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekouibeam/investment-agent/internal/models"
)

var envKeys = []string{
	"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"GOOGLE_API_KEY", "ANTHROPIC_API_KEY", "FINNHUB_API_KEY", "SEARCH_PROVIDER",
	"TAVILY_API_KEY", "SEARXNG_BASE_URL", "MCP_SEARCH_ENDPOINT", "HTTP_ADDR", "LOG_LEVEL",
	"LOG_FILE", "REPORT_LANGUAGE", "TICKER_RESOLVER", "CORS_ORIGINS", "STAGE_TIMEOUT",
	"CALL_TIMEOUT", "RUN_TIMEOUT", "MAX_TOOL_ITERATIONS", "LLM_RPM",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnvWithDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("FINNHUB_API_KEY", "fh-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, models.AIProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-5-mini", cfg.LLM.ModelName)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.Equal(t, float32(0), *cfg.LLM.Temperature)
	assert.Equal(t, "finnhub", cfg.Search.Provider)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 6, cfg.Workflow.MaxToolIterations)
	assert.Equal(t, 3*time.Minute, cfg.Workflow.StageTimeout)
	assert.Equal(t, time.Duration(0), cfg.Workflow.RunTimeout)
}

func TestLoadGoogleProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "Google")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("FINNHUB_API_KEY", "fh")
	t.Setenv("TAVILY_API_KEY", "tv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, models.AIProviderGoogle, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.ModelName)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "tavily", cfg.Search.Provider)
}

func TestLoadYAMLThenEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
llm:
  provider: anthropic
  model: claude-test
  api_key: file-key
market:
  finnhub_api_key: fh-file
search:
  provider: searxng
  searxng:
    base_url: http://localhost:8888
workflow:
  stage_timeout: 45s
  run_timeout: 5m
  language: Traditional Chinese
server:
  cors_origins: ["http://localhost:3000"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))
	t.Setenv("LLM_MODEL", "claude-override")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.AIProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-override", cfg.LLM.ModelName)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Workflow.StageTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Workflow.RunTimeout)
	assert.Equal(t, "Traditional Chinese", cfg.Workflow.Language)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		key  string
	}{
		{"unknown provider", map[string]string{"LLM_PROVIDER": "mistral", "FINNHUB_API_KEY": "x"}, "LLM_PROVIDER"},
		{"missing key", map[string]string{"LLM_PROVIDER": "anthropic", "FINNHUB_API_KEY": "x"}, "ANTHROPIC_API_KEY"},
		{"missing finnhub", map[string]string{"OPENAI_API_KEY": "x"}, "FINNHUB_API_KEY"},
		{"tavily without key", map[string]string{"OPENAI_API_KEY": "x", "FINNHUB_API_KEY": "x", "SEARCH_PROVIDER": "tavily"}, "TAVILY_API_KEY"},
		{"bad duration", map[string]string{"OPENAI_API_KEY": "x", "FINNHUB_API_KEY": "x", "STAGE_TIMEOUT": "soon"}, "STAGE_TIMEOUT"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			var cfgErr *models.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, c.key, cfgErr.Key)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
