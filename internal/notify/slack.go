package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// Slack posts digests to an incoming webhook.
type Slack struct {
	webhookURL string
	client     *http.Client
}

func NewSlack(webhookURL string, timeout time.Duration) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Slack) Name() string {
	return "slack"
}

// Send posts every page of the digest in order and stops at the first failure.
func (s *Slack) Send(ctx context.Context, digest Digest) error {
	msgs := digest.SlackMessages()
	for i, msg := range msgs {
		if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
			return fmt.Errorf("post slack webhook (message %d of %d): %w", i+1, len(msgs), err)
		}
	}
	return nil
}
