package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_summarizer/internal/config"
	"news_summarizer/internal/domain"
)

func TestWriteResult_IsParseableJSON(t *testing.T) {
	var out bytes.Buffer
	result := &domain.RunResult{
		RunID:          "run-1",
		ItemsFetched:   2,
		ItemsProcessed: 2,
		Articles:       []domain.ArticleRef{{ID: "a", Title: "A", Source: "AWS"}},
		Notification:   domain.NotificationOutcome{Status: domain.NotificationDelivered, Channel: "slack", Entries: 2},
	}

	require.NoError(t, writeResult(&out, result))

	var got domain.RunResult
	require.NoError(t, json.NewDecoder(&out).Decode(&got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.ItemsProcessed)
	assert.Equal(t, "slack", got.Notification.Channel)
}

func TestSetupLogger_WritesToGivenStream(t *testing.T) {
	var logs bytes.Buffer
	logger := setupLogger("warn", &logs)

	logger.Info("dropped")
	logger.Warn("kept", "run_id", "run-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "WARN", line["level"])
}

func TestNewChannels_EmailOnlyStandsInForRabbitMQ(t *testing.T) {
	logger := setupLogger("error", &bytes.Buffer{})

	channels, closeFn, err := newChannels(config.NotifyConfig{
		Slack: config.SlackConfig{WebhookURL: "https://hooks.example.com/x"},
		Email: config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, To: "team@example.com"},
	}, logger)
	require.NoError(t, err)
	defer closeFn()

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name()
	}
	assert.Equal(t, []string{"slack", "email"}, names)
}

func TestNewChannels_NothingConfigured(t *testing.T) {
	channels, closeFn, err := newChannels(config.NotifyConfig{}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)
	defer closeFn()
	assert.Empty(t, channels)
}
