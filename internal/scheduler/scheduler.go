package scheduler

import (
	"context"
	"log/slog"
	"time"

	"news_summarizer/internal/domain"
)

// Runner runs one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*domain.RunResult, error)
}

type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(runner Runner, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs immediately and then once per interval until ctx is done.
// A pass that outlasts the interval delays the next one; ticks are not queued.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "timeout", s.timeout)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.runner.Run(runCtx)
	if result == nil {
		s.logger.Error("run failed", "error", err)
		return
	}

	attrs := []any{
		"run_id", result.RunID,
		"fetched", result.ItemsFetched,
		"processed", result.ItemsProcessed,
		"skipped", result.ItemsSkipped,
		"notification", result.Notification.Status,
	}
	if err != nil {
		s.logger.Error("run finished early", append(attrs, "error", err)...)
		return
	}
	s.logger.Info("run finished", attrs...)
}
