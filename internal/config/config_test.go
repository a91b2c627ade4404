package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	d := Default()
	assert.Equal(t, d.LLM.Provider, cfg.LLM.Provider)
	assert.Equal(t, d.LLM.Model, cfg.LLM.Model)
	assert.InDelta(t, d.LLM.Temperature, cfg.LLM.Temperature, 1e-6)
	require.NotNil(t, cfg.LLM.MaxTokens)
	assert.Equal(t, *d.LLM.MaxTokens, *cfg.LLM.MaxTokens)
	assert.Equal(t, d.LLM.TimeoutSecs, cfg.LLM.TimeoutSecs)
	assert.Nil(t, cfg.LLM.TopP, "top_p has no default and must stay unset")
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, ConfirmAlways, cfg.Security.ConfirmationMode)
	assert.Equal(t, d.Security.DangerousCommands, cfg.Security.DangerousCommands)
	assert.Equal(t, d.History.MaxEntries, cfg.History.MaxEntries)
	assert.Equal(t, d.Prompt.UserPromptTemplate, cfg.Prompt.UserPromptTemplate)
	assert.Equal(t, FormatRich, cfg.UI.OutputFormat)
}

func TestDefaultSystemPromptFewShotExamples(t *testing.T) {
	prompt := Default().Prompt.SystemPrompt

	// All three few-shot examples, including the dangerous one with its
	// "# Be careful:" comment, are part of the default prompt.
	assert.Contains(t, prompt, "Example Request: Find all files modified in the last 2 days")
	assert.Contains(t, prompt, "Example Request: Delete the logs folder")
	assert.Contains(t, prompt, "rm -rf ./logs # Be careful: This will permanently delete the folder and its contents.")
	assert.Contains(t, prompt, "Example Request: Show disk usage for the current directory")
}

func TestLoadRoundTrip(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")

	first, err := Load(path)
	require.NoError(t, err)

	// Reloading the file Load just materialized must yield the same value.
	second, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadPartialFileMergesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
model = "gpt-4o-mini"
top_p = 0.9

[security]
confirmation_mode = "dangerous"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.NotNil(t, cfg.LLM.TopP)
	assert.InDelta(t, 0.9, float64(*cfg.LLM.TopP), 1e-6)
	assert.Equal(t, ConfirmDangerous, cfg.Security.ConfirmationMode)

	// Untouched sections keep their defaults.
	d := Default()
	assert.Equal(t, d.LLM.TimeoutSecs, cfg.LLM.TimeoutSecs)
	assert.Equal(t, d.Security.DangerousCommands, cfg.Security.DangerousCommands)
}

func TestLoadCapitalizedModeNormalized(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[security]
confirmation_mode = "Dangerous"

[ui]
output_format = "Plain"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ConfirmDangerous, cfg.Security.ConfirmationMode)
	assert.Equal(t, FormatPlain, cfg.UI.OutputFormat)
}

func TestLoadAPIKeyEnvFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

func TestLoadFileKeyWinsOverEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
api_key = "sk-from-file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	valid := Default()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.LLM.TimeoutSecs = 0 }},
		{"negative timeout", func(c *Config) { c.LLM.TimeoutSecs = -5 }},
		{"zero max_tokens", func(c *Config) { zero := 0; c.LLM.MaxTokens = &zero }},
		{"bad confirmation mode", func(c *Config) { c.Security.ConfirmationMode = "sometimes" }},
		{"bad output format", func(c *Config) { c.UI.OutputFormat = "html" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateNilMaxTokensAllowed(t *testing.T) {
	cfg := Default()
	cfg.LLM.MaxTokens = nil
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidConfigRejected(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
timeout_secs = 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
