package repository

import (
	"context"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
)

// Subscription is a live feed handle. Cancel is idempotent; cancelling twice
// is a no-op.
type Subscription interface {
	Cancel()
}

// UpdateFunc receives the full current ordered message sequence for a thread
// every time it changes. Delivery happens on a background goroutine; callers
// must not assume same-goroutine delivery. A terminal feed error is delivered
// once with a nil batch, after which no further calls are made.
type UpdateFunc func(messages []*entity.Message, err error)

// MessageGateway is the only component that talks to the document store for
// message data.
type MessageGateway interface {
	// Append writes a new message with a store-assigned id and server
	// timestamp. Fails with WRITE_ERROR on network or permission failure;
	// the caller surfaces the failure, nothing retries automatically.
	Append(ctx context.Context, threadID, senderID, body string) (*entity.Message, error)

	// FetchOrdered returns messages ordered by sentAt with the message id
	// as tie-break. limit <= 0 means no limit. descending flips the order,
	// used for "most recent only" queries feeding previews.
	FetchOrdered(ctx context.Context, threadID string, limit int, descending bool) ([]*entity.Message, error)

	// Subscribe opens a live feed for a thread. The feed runs until Cancel
	// is called or the listener fails terminally.
	Subscribe(ctx context.Context, threadID string, onUpdate UpdateFunc) (Subscription, error)
}
