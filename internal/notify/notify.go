// Package notify renders run digests and delivers them through an ordered
// list of channels, falling back to the next channel when one fails.
package notify

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"news_summarizer/internal/domain"
)

// Channel delivers a digest to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, digest Digest) error
}

type Dispatcher struct {
	channels []Channel
	language string
	now      func() time.Time
	logger   *slog.Logger
}

// Chain returns the primary channel followed by the first configured
// fallback. A failing fallback is final, so later fallbacks only stand in
// for earlier unconfigured ones.
func Chain(primary Channel, fallbacks ...Channel) []Channel {
	var chain []Channel
	if !isNil(primary) {
		chain = append(chain, primary)
	}
	for _, ch := range fallbacks {
		if !isNil(ch) {
			return append(chain, ch)
		}
	}
	return chain
}

// NewDispatcher creates a dispatcher trying channels in the given order.
// Nil channels, including typed nil pointers, are ignored.
func NewDispatcher(channels []Channel, language string, logger *slog.Logger) *Dispatcher {
	configured := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if !isNil(ch) {
			configured = append(configured, ch)
		}
	}

	return &Dispatcher{
		channels: configured,
		language: language,
		now:      time.Now,
		logger:   logger.With("component", "notify"),
	}
}

// Channels returns the names of configured channels in fallback order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Dispatch sends entries through the first channel that accepts them.
// Delivery failures are reported in the outcome, never as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, entries []domain.DigestEntry) domain.NotificationOutcome {
	outcome := domain.NotificationOutcome{Entries: len(entries)}

	if len(entries) == 0 {
		outcome.Status = domain.NotificationSkipped
		return outcome
	}
	if len(d.channels) == 0 {
		d.logger.Info("no notification channel configured", "entries", len(entries))
		outcome.Status = domain.NotificationNotConfigured
		return outcome
	}

	digest := Digest{
		Entries:  entries,
		Date:     d.now(),
		Language: d.language,
	}

	outcome.Status = domain.NotificationFailed
	for _, ch := range d.channels {
		err := ch.Send(ctx, digest)
		if err == nil {
			d.logger.Info("digest delivered", "channel", ch.Name(), "entries", len(entries))
			outcome.Status = domain.NotificationDelivered
			outcome.Channel = ch.Name()
			break
		}
		d.logger.Error("failed to deliver digest", "channel", ch.Name(), "error", err)
	}

	return outcome
}

func isNil(ch Channel) bool {
	if ch == nil {
		return true
	}
	v := reflect.ValueOf(ch)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
