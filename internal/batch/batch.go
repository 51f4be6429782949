// Package batch partitions a backlog into fixed-size batches and paces work
// through them so that a rate-limited backend sees a steady, low request rate.
package batch

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/samber/lo"

	"news_summarizer/internal/domain"
)

// Split partitions items into consecutive batches of size, preserving order.
// The last batch may be shorter. A size below 1 is treated as 1.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	return lo.Chunk(items, size)
}

// Sleeper blocks the calling goroutine for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration)
}

type SleeperFunc func(ctx context.Context, d time.Duration)

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) {
	f(ctx, d)
}

type timeSleeper struct{}

func (timeSleeper) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Config holds batch scheduler configuration.
type Config struct {
	Size          int
	ItemPause     time.Duration
	BatchPauseMin time.Duration
	BatchPauseMax time.Duration
}

type Scheduler struct {
	cfg     Config
	sleeper Sleeper
	rand    func() float64
	logger  *slog.Logger
}

// NewScheduler creates a scheduler. A nil sleeper uses real timers.
func NewScheduler(cfg Config, sleeper Sleeper, logger *slog.Logger) *Scheduler {
	if cfg.Size < 1 {
		cfg.Size = 1
	}
	if sleeper == nil {
		sleeper = timeSleeper{}
	}
	return &Scheduler{
		cfg:     cfg,
		sleeper: sleeper,
		rand:    rand.Float64,
		logger:  logger.With("component", "batch"),
	}
}

// Each calls fn for every item in order. It pauses ItemPause between items of
// the same batch and a random duration in [BatchPauseMin, BatchPauseMax)
// between batches; there is no pause before the first item or after the last.
// It returns ctx.Err() if the context ends before every item was visited.
func (s *Scheduler) Each(ctx context.Context, items []domain.Item, fn func(ctx context.Context, item domain.Item)) error {
	batches := Split(items, s.cfg.Size)

	for b, batch := range batches {
		s.logger.Info("processing batch",
			"batch", b+1,
			"batches", len(batches),
			"size", len(batch),
		)

		for i, item := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}

			fn(ctx, item)

			if i < len(batch)-1 {
				s.sleeper.Sleep(ctx, s.cfg.ItemPause)
			}
		}

		if b < len(batches)-1 {
			pause := s.batchPause()
			s.logger.Debug("pausing between batches", "pause", pause)
			s.sleeper.Sleep(ctx, pause)
		}
	}

	return nil
}

func (s *Scheduler) batchPause() time.Duration {
	spread := s.cfg.BatchPauseMax - s.cfg.BatchPauseMin
	if spread <= 0 {
		return s.cfg.BatchPauseMin
	}
	return s.cfg.BatchPauseMin + time.Duration(s.rand()*float64(spread))
}
