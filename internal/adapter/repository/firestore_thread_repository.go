package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/errors"
)

type firestoreThreadRepository struct {
	client *firestore.Client
}

func NewFirestoreThreadRepository(client *firestore.Client) repository.ThreadRepository {
	return &firestoreThreadRepository{
		client: client,
	}
}

func (r *firestoreThreadRepository) GetByID(ctx context.Context, id string) (*entity.ConversationThread, error) {
	doc, err := r.client.Collection("threads").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Thread", err)
		}
		return nil, errors.Store("Failed to get thread", err)
	}

	var thread entity.ConversationThread
	if err := doc.DataTo(&thread); err != nil {
		return nil, errors.Store("Failed to parse thread data", err)
	}
	thread.ID = doc.Ref.ID

	return &thread, nil
}

func (r *firestoreThreadRepository) Create(ctx context.Context, thread *entity.ConversationThread) error {
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = time.Now()
	}

	// Create, not Set: two participants opening the conversation for the
	// first time at the same instant converge on the record written first
	// instead of blindly overwriting each other.
	_, err := r.client.Collection("threads").Doc(thread.ID).Create(ctx, thread)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return errors.Store("Failed to create thread", err)
	}

	return nil
}

func (r *firestoreThreadRepository) UpdateLastMessage(ctx context.Context, threadID, summary string, at time.Time) error {
	_, err := r.client.Collection("threads").Doc(threadID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: summary},
		{Path: "lastMessageAt", Value: at},
	})
	if err != nil {
		return errors.Store("Failed to update last message", err)
	}

	return nil
}
