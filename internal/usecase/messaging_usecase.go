package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/ratelimit"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/errors"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/logger"
)

type MessagingUseCase struct {
	threadRepo  repository.ThreadRepository
	userRepo    repository.UserRepository
	gateway     repository.MessageGateway
	rateLimiter *ratelimit.RateLimiter
}

func NewMessagingUseCase(
	threadRepo repository.ThreadRepository,
	userRepo repository.UserRepository,
	gateway repository.MessageGateway,
) *MessagingUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessagingUseCase{
		threadRepo:  threadRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		rateLimiter: rateLimiter,
	}
}

// GetOrCreateThread resolves the deterministic thread id for the pair and
// returns the stored record, creating it on first need. Lookup is idempotent:
// both participants resolve the same id, and a creation race converges on a
// single record. Messages are left unloaded.
func (uc *MessagingUseCase) GetOrCreateThread(ctx context.Context, viewerID, counterpartID string) (*entity.ConversationThread, error) {
	if strings.TrimSpace(viewerID) == "" || strings.TrimSpace(counterpartID) == "" {
		return nil, errors.Identity("Participant id must not be empty", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(viewerID, "create_thread")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another conversation", waitTime)
	}

	id := entity.ThreadIDFor(viewerID, counterpartID)

	thread, err := uc.threadRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}

		participantIDs := []string{viewerID, counterpartID}
		sort.Strings(participantIDs)

		if err := uc.threadRepo.Create(ctx, &entity.ConversationThread{
			ID:             id,
			ParticipantIDs: participantIDs,
		}); err != nil {
			return nil, err
		}

		// Re-read so a racing creator and this caller observe one record.
		thread, err = uc.threadRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.hydrateParticipants(ctx, thread); err != nil {
		return nil, err
	}

	return thread, nil
}

func (uc *MessagingUseCase) hydrateParticipants(ctx context.Context, thread *entity.ConversationThread) error {
	thread.Participants = thread.Participants[:0]
	for _, pid := range thread.ParticipantIDs {
		user, err := uc.userRepo.GetByID(ctx, pid)
		if err != nil {
			logger.Error("GetOrCreateThread: participant %s not resolvable: %v", pid, err)
			return errors.NotFound("Participant", err)
		}
		thread.Participants = append(thread.Participants, user)
	}
	return nil
}

// Send writes one outbound message and refreshes the thread's denormalized
// last-message fields. The second write is best effort: when it fails the
// message is already durable, so the caller gets the message back together
// with a SEND_PARTIAL error instead of a rollback. There is no optimistic
// local echo; the sender renders the message through its own live feed.
func (uc *MessagingUseCase) Send(ctx context.Context, viewerID, threadID, body string) (*entity.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.BadRequest("Message body must not be empty", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(viewerID, "send_message")
	if !allowed {
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	thread, err := uc.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		logger.Error("Send: thread %s not found: %v", threadID, err)
		return nil, err
	}

	if !thread.HasParticipant(viewerID) {
		return nil, errors.Forbidden("User is not a participant in this thread", nil)
	}

	message, err := uc.gateway.Append(ctx, threadID, viewerID, body)
	if err != nil {
		logger.Error("Send: failed to append message to thread %s: %v", threadID, err)
		return nil, err
	}

	if err := uc.threadRepo.UpdateLastMessage(ctx, threadID, message.Body, message.SentAt); err != nil {
		logger.Warn("Send: message %s durable but summary update failed for thread %s: %v", message.ID, threadID, err)
		return message, errors.SendPartial("Message sent but conversation preview may lag", err)
	}

	return message, nil
}

// History returns the ordered message log of a thread. limit <= 0 loads the
// full page; descending is used by preview-style queries.
func (uc *MessagingUseCase) History(ctx context.Context, viewerID, threadID string, limit int, descending bool) ([]*entity.Message, error) {
	thread, err := uc.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if !thread.HasParticipant(viewerID) {
		return nil, errors.Forbidden("User is not a participant in this thread", nil)
	}

	messages, err := uc.gateway.FetchOrdered(ctx, threadID, limit, descending)
	if err != nil {
		return nil, err
	}

	entity.MarkOwnership(messages, viewerID)
	return messages, nil
}

// IsParticipant reports whether uid belongs to the thread. Used by the live
// stream handler before attaching an observer.
func (uc *MessagingUseCase) IsParticipant(ctx context.Context, uid, threadID string) (bool, error) {
	thread, err := uc.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return false, err
	}
	return thread.HasParticipant(uid), nil
}
