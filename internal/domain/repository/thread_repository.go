package repository

import (
	"context"
	"time"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
)

type ThreadRepository interface {
	// GetByID reads a thread record. NOT_FOUND when absent.
	GetByID(ctx context.Context, id string) (*entity.ConversationThread, error)

	// Create performs a create-if-absent write. When another caller already
	// created the same thread id, Create reports no error and the caller
	// re-reads; the id is deterministic so both racers converge on one
	// record.
	Create(ctx context.Context, thread *entity.ConversationThread) error

	// UpdateLastMessage refreshes the denormalized preview fields on the
	// thread document.
	UpdateLastMessage(ctx context.Context, threadID, summary string, at time.Time) error
}
