// Package pipeline runs one pass over the unprocessed backlog: fetch, batch,
// summarize, write back and notify.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"news_summarizer/internal/domain"
)

type Config struct {
	SourceFilter string
}

type Pipeline struct {
	items      ItemStore
	summarizer Summarizer
	batches    BatchRunner
	notifier   Notifier
	runState   RunStateStore
	logger     *slog.Logger
	config     Config

	now   func() time.Time
	newID func() string
}

// New creates a pipeline. notifier and runState may be nil.
func New(
	items ItemStore,
	summarizer Summarizer,
	batches BatchRunner,
	notifier Notifier,
	runState RunStateStore,
	logger *slog.Logger,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		items:      items,
		summarizer: summarizer,
		batches:    batches,
		notifier:   notifier,
		runState:   runState,
		logger:     logger.With("component", "pipeline"),
		config:     cfg,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run processes the current backlog once. Only a failed backlog fetch is
// returned as an error without a result; per-item failures are counted as
// skipped. If ctx ends mid-run, items written so far are still notified and
// the result is returned together with the context error.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunResult, error) {
	result := &domain.RunResult{
		RunID:     p.newID(),
		StartedAt: p.now(),
	}
	logger := p.logger.With("run_id", result.RunID)
	logger.Info("starting run", "source_filter", p.config.SourceFilter)

	items, err := p.items.FetchUnprocessed(ctx, p.config.SourceFilter)
	if err != nil {
		logger.Error("failed to fetch backlog", "error", err)
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	result.ItemsFetched = len(items)
	logger.Info("fetched backlog", "count", len(items))

	var written []domain.DigestEntry
	var refs []domain.ArticleRef

	runErr := p.batches.Each(ctx, items, func(ctx context.Context, item domain.Item) {
		summary := p.summarizer.Summarize(ctx, item)

		if err := p.items.WriteResult(ctx, item.ID, summary, p.now().UTC()); err != nil {
			logger.Error("failed to write summary", "item_id", item.ID, "error", err)
			result.ItemsSkipped++
			return
		}

		logger.Debug("item processed", "item_id", item.ID, "title", item.Title)
		written = append(written, domain.DigestEntry{
			Title:   item.Title,
			Source:  item.Source,
			Summary: summary,
			Link:    item.Link,
		})
		refs = append(refs, domain.ArticleRef{ID: item.ID, Title: item.Title, Source: item.Source})
	})
	if runErr != nil {
		logger.Warn("run interrupted", "error", runErr)
		runErr = fmt.Errorf("process items: %w", runErr)
	}

	result.ItemsProcessed = len(written)
	result.Articles = lo.Ternary(refs == nil, []domain.ArticleRef{}, refs)
	result.Summaries = lo.Ternary(written == nil, []domain.DigestEntry{}, written)

	// the digest covers what was written even if the run was cut short
	result.Notification = p.notify(context.WithoutCancel(ctx), written)

	p.updateRunState(context.WithoutCancel(ctx), result)

	result.Duration = time.Since(result.StartedAt)

	logger.Info("run completed",
		"fetched", result.ItemsFetched,
		"processed", result.ItemsProcessed,
		"skipped", result.ItemsSkipped,
		"notification", result.Notification.Status,
		"channel", result.Notification.Channel,
		"duration", result.Duration,
	)

	return result, runErr
}

func (p *Pipeline) notify(ctx context.Context, entries []domain.DigestEntry) domain.NotificationOutcome {
	if len(entries) == 0 {
		return domain.NotificationOutcome{Status: domain.NotificationSkipped}
	}
	if p.notifier == nil {
		return domain.NotificationOutcome{Status: domain.NotificationNotConfigured, Entries: len(entries)}
	}
	return p.notifier.Dispatch(ctx, entries)
}

// updateRunState is best effort: run bookkeeping never fails a run.
func (p *Pipeline) updateRunState(ctx context.Context, result *domain.RunResult) {
	if p.runState == nil {
		return
	}

	state, err := p.runState.Get(ctx, p.config.SourceFilter)
	if err != nil {
		p.logger.Warn("failed to load run state", "run_id", result.RunID, "error", err)
		return
	}

	state.SourceFilter = p.config.SourceFilter
	state.LastRunAt = result.StartedAt
	state.LastRunID = result.RunID
	state.TotalProcessed += int64(result.ItemsProcessed)

	if err := p.runState.Update(ctx, state); err != nil {
		p.logger.Warn("failed to update run state", "run_id", result.RunID, "error", err)
	}
}
