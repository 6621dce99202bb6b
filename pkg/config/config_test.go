package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DeepSeekBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Email.MaxSequenceLength)
	assert.Equal(t, 3, cfg.Schedule["twitter"].PostsPerDay)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvOutputDir, "artifacts")
	t.Setenv(EnvDeepSeekAPIKey, "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "artifacts", cfg.OutputDir)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketbot.yaml")
	content := []byte("llm:\n  model: gpt-4o-mini\nserver:\n  port: 7070\nseo:\n  min_word_count: 2000\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 2000, cfg.SEO.MinWordCount)
	// Defaults untouched by partial file.
	assert.Equal(t, 7, cfg.Email.MaxSequenceLength)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.LLM.Model = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"empty output dir", func(c *Config) { c.OutputDir = "" }},
		{"zero sequence length", func(c *Config) { c.Email.MaxSequenceLength = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestInferProvider(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"deepseek-chat", ProviderOpenAI},
		{"gpt-4o", ProviderOpenAI},
		{"claude-sonnet-4-20250514", ProviderAnthropic},
		{"claude-future-model", ProviderAnthropic},
		{"gemini-2.0-flash", ProviderGoogle},
		{"llama3.1:8b", ProviderOllama},
		{"mystery-model", ProviderOpenAI},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InferProvider(tt.model), tt.model)
	}
}

func TestDetectSearchAPIs(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.DetectSearchAPIs().Available)

	cfg.Tools.SerperAPIKey = "serper-key"
	status := cfg.DetectSearchAPIs()
	assert.True(t, status.Available)
	assert.Equal(t, SearchProviderSerper, status.Provider)

	cfg.Tools.TavilyAPIKey = "tavily-key"
	status = cfg.DetectSearchAPIs()
	assert.Equal(t, SearchProviderTavily, status.Provider)
	assert.Equal(t, "serper-key", status.SerperAPIKey)
}

func TestModelCost(t *testing.T) {
	cost := ModelCost("deepseek-chat", 1_000_000, 1_000_000)
	assert.InDelta(t, 0.27+1.10, cost, 1e-9)
	assert.Zero(t, ModelCost("mystery-model", 1000, 1000))
}
