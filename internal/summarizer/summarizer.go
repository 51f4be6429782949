// Package summarizer produces item summaries through an llm.Generator,
// retrying throttled calls with jittered exponential back-off. Summarize never
// fails: every error path resolves to a string that is stored as the summary.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"news_summarizer/internal/domain"
	"news_summarizer/internal/llm"
)

const NoContentSummary = "No content available for summarization."

// Config holds summarizer configuration.
type Config struct {
	ModelID        string
	OutputLanguage string
	MaxTokens      int
	MaxRetries     int
	BaseDelay      time.Duration
}

type Summarizer struct {
	generator  llm.Generator
	shape      llm.Shape
	language   string
	maxTokens  int
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger

	// overridden in tests
	rand  func() float64
	timer backoff.Timer
}

func New(generator llm.Generator, cfg Config, logger *slog.Logger) *Summarizer {
	shape := llm.ShapeFor(cfg.ModelID)
	logger = logger.With("component", "summarizer")
	logger.Info("summarizer configured",
		"model", cfg.ModelID,
		"shape", shape,
		"language", cfg.OutputLanguage,
		"max_retries", cfg.MaxRetries,
	)

	return &Summarizer{
		generator:  generator,
		shape:      shape,
		language:   cfg.OutputLanguage,
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		logger:     logger,
	}
}

// Summarize returns a summary for item, or a description of why none could be
// generated. At most MaxRetries+1 generation calls are made.
func (s *Summarizer) Summarize(ctx context.Context, item domain.Item) string {
	if strings.TrimSpace(item.Content) == "" {
		return NoContentSummary
	}

	req := llm.Request{
		Shape:     s.shape,
		Prompt:    buildPrompt(item, prepareContent(item.Content), s.language),
		MaxTokens: s.maxTokens,
	}

	var (
		summary string
		calls   int
	)

	operation := func() error {
		calls++
		out, err := s.generator.Generate(ctx, req)
		if err == nil {
			summary = strings.TrimSpace(out)
			return nil
		}
		if llm.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, delay time.Duration) {
		s.logger.Warn("generation throttled, backing off",
			"item_id", item.ID,
			"retry", calls,
			"delay", delay,
			"error", err,
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newJitterBackOff(s.baseDelay, s.rand), uint64(s.maxRetries)),
		ctx,
	)

	err := backoff.RetryNotifyWithTimer(operation, policy, notify, s.timer)
	switch {
	case err == nil:
		s.logger.Debug("summary generated", "item_id", item.ID, "calls", calls)
		return summary
	case llm.IsRetryable(err):
		s.logger.Error("retry budget exhausted", "item_id", item.ID, "retries", calls-1, "error", err)
		return fmt.Sprintf("Error generating summary: maximum retries (%d) exceeded: %v", calls-1, err)
	default:
		s.logger.Error("failed to generate summary", "item_id", item.ID, "calls", calls, "error", err)
		return fmt.Sprintf("Error generating summary: %v", err)
	}
}
