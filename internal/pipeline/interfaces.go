package pipeline

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"news_summarizer/internal/domain"
)

type ItemStore interface {
	FetchUnprocessed(ctx context.Context, sourceFilter string) ([]domain.Item, error)
	WriteResult(ctx context.Context, id, summary string, processedAt time.Time) error
}

type RunStateStore interface {
	Get(ctx context.Context, sourceFilter string) (*domain.RunState, error)
	Update(ctx context.Context, state *domain.RunState) error
}

type Summarizer interface {
	Summarize(ctx context.Context, item domain.Item) string
}

type BatchRunner interface {
	Each(ctx context.Context, items []domain.Item, fn func(ctx context.Context, item domain.Item)) error
}

type Notifier interface {
	Dispatch(ctx context.Context, entries []domain.DigestEntry) domain.NotificationOutcome
}
