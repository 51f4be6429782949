package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("log_level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, StorageTypePostgres, cfg.Storage.Type)
	assert.Equal(t, ProviderOpenAI, cfg.Generation.Provider)
	assert.Equal(t, LanguageEnglish, cfg.Generation.OutputLanguage)
	assert.Equal(t, 8, cfg.Generation.Retries())
	assert.Equal(t, time.Second, cfg.Generation.BaseDelay)
	assert.Equal(t, 1, cfg.Pipeline.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.ItemPause)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.BatchPauseMin)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.BatchPauseMax)
	assert.Equal(t, time.Hour, cfg.Pipeline.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.RunTimeout)
	assert.False(t, cfg.Notify.Slack.Enabled())
	assert.False(t, cfg.Notify.RabbitMQ.Enabled())
	assert.False(t, cfg.Notify.Email.Enabled())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_OllamaDefaultsToLocalServer(t *testing.T) {
	cfg, err := Parse([]byte("generation:\n  provider: ollama\n  model_id: llama3\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultOllamaURL, cfg.Generation.BaseURL)

	cfg, err = Parse([]byte("generation:\n  provider: ollama\n  base_url: http://gpu-box:11434\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Generation.BaseURL)

	cfg, err = Parse([]byte("generation:\n  provider: openai\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Generation.BaseURL)
}

func TestParse_ExplicitZeroRetries(t *testing.T) {
	cfg, err := Parse([]byte("generation:\n  max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Generation.Retries())
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_SLACK_WEBHOOK", "https://hooks.example.com/abc")

	cfg, err := Parse([]byte("notify:\n  slack:\n    webhook_url: ${TEST_SLACK_WEBHOOK}\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/abc", cfg.Notify.Slack.WebhookURL)
	assert.True(t, cfg.Notify.Slack.Enabled())
}

func TestParse_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"storage", "storage:\n  type: s3\n", "unknown storage type"},
		{"provider", "generation:\n  provider: bedrock\n", "unknown generation provider"},
		{"language", "generation:\n  output_language: fr\n", "unsupported output language"},
		{"retries", "generation:\n  max_retries: -1\n", "max_retries"},
		{"batch size", "pipeline:\n  batch_size: -2\n", "batch_size"},
		{"pauses", "pipeline:\n  batch_pause_min: 20s\n  batch_pause_max: 10s\n", "batch_pause_max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  batch_size: 3\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pipeline.BatchSize)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "news", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=news sslmode=disable", d.DSN())
}
