package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/errors"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/logger"
)

type firestoreMessageGateway struct {
	client *firestore.Client
}

func NewFirestoreMessageGateway(client *firestore.Client) repository.MessageGateway {
	return &firestoreMessageGateway{
		client: client,
	}
}

func (g *firestoreMessageGateway) messages(threadID string) *firestore.CollectionRef {
	return g.client.Collection("threads").Doc(threadID).Collection("messages")
}

func (g *firestoreMessageGateway) Append(ctx context.Context, threadID, senderID, body string) (*entity.Message, error) {
	message := &entity.Message{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		SenderID: senderID,
		Body:     body,
		// SentAt left zero so the serverTimestamp sentinel assigns the
		// store's clock, keeping ordering independent of client skew.
	}

	wr, err := g.messages(threadID).Doc(message.ID).Create(ctx, message)
	if err != nil {
		return nil, errors.Write("Failed to append message", err)
	}

	message.SentAt = wr.UpdateTime
	return message, nil
}

func (g *firestoreMessageGateway) orderedQuery(threadID string, limit int, descending bool) firestore.Query {
	dir := firestore.Asc
	if descending {
		dir = firestore.Desc
	}

	// Secondary order on the document id keeps iteration stable when two
	// messages share a server timestamp.
	query := g.messages(threadID).OrderBy("sentAt", dir).OrderBy(firestore.DocumentID, dir)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

func (g *firestoreMessageGateway) FetchOrdered(ctx context.Context, threadID string, limit int, descending bool) ([]*entity.Message, error) {
	iter := g.orderedQuery(threadID, limit, descending).Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for thread %s: %v", threadID, err)
			return nil, errors.Store("Failed to fetch messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for thread %s: %v", threadID, err)
			return nil, errors.Store("Failed to parse message data", err)
		}
		message.ID = doc.Ref.ID

		messages = append(messages, &message)
	}

	return messages, nil
}

func (g *firestoreMessageGateway) Subscribe(ctx context.Context, threadID string, onUpdate repository.UpdateFunc) (repository.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	snapshots := g.orderedQuery(threadID, 0, false).Snapshots(ctx)

	sub := &snapshotSubscription{
		cancel:    cancel,
		snapshots: snapshots,
	}

	go func() {
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("Live feed for thread %s failed: %v", threadID, err)
				onUpdate(nil, errors.Store("Live feed failed", err))
				return
			}

			messages, err := decodeSnapshot(snap)
			if err != nil {
				logger.Error("Error decoding snapshot for thread %s: %v", threadID, err)
				continue
			}

			onUpdate(messages, nil)
		}
	}()

	return sub, nil
}

func decodeSnapshot(snap *firestore.QuerySnapshot) ([]*entity.Message, error) {
	var messages []*entity.Message
	for {
		doc, err := snap.Documents.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, err
		}
		message.ID = doc.Ref.ID

		messages = append(messages, &message)
	}
	return messages, nil
}

type snapshotSubscription struct {
	once      sync.Once
	cancel    context.CancelFunc
	snapshots *firestore.QuerySnapshotIterator
}

func (s *snapshotSubscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		s.snapshots.Stop()
	})
}
