// Package chat defines the outbound side of the bot as seen by the webhook:
// something that resolves a channel id and a channel that accepts summaries.
package chat

import (
	"context"
	"errors"

	"github.com/gadget-bot/venueshare/search"
)

// ErrChannelNotFound is returned by a Registry for ids it cannot resolve.
var ErrChannelNotFound = errors.New("channel not found")

// Registry resolves channel ids to channels the bot can post to.
type Registry interface {
	Channel(ctx context.Context, id int64) (Channel, error)
}

// Channel is a resolved destination for summaries.
type Channel interface {
	Send(ctx context.Context, summary search.Summary) error
}
