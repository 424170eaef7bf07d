// Package slack posts escalation notices to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/callboard/callboard/internal/notify"
	slackapi "github.com/slack-go/slack"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
)

// client abstracts the Slack API methods we use, enabling test mocks.
type client interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter implements notify.Notifier for Slack.
type Adapter struct {
	client    client
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client client
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel id is required")
	}
	c := opts.Client
	if c == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		c = slackapi.New(opts.BotToken)
	}
	return &Adapter{client: c, channelID: opts.ChannelID}, nil
}

// Notify posts the notice as a Slack message, retrying rate-limited calls.
func (a *Adapter) Notify(ctx context.Context, n notify.Notice) error {
	text := fmt.Sprintf("*%s*\n%s", n.Subject(), n.Body())

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		_, _, err := a.client.PostMessageContext(ctx, a.channelID,
			slackapi.MsgOptionText(text, false))
		if err == nil {
			return nil
		}
		lastErr = err

		if rl, ok := err.(*slackapi.RateLimitedError); ok {
			select {
			case <-time.After(rl.RetryAfter):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		break
	}
	return fmt.Errorf("slack: post to %s: %w", a.channelID, lastErr)
}
