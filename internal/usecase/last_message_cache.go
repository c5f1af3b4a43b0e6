package usecase

import (
	"context"
	"sync"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/live"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/logger"
)

// LastMessageCache keeps the most recent message per counterpart for one
// viewer's conversation list. It is primed with a limit-1 descending fetch
// per counterpart and kept current by the live subscription manager. Entries
// are never evicted; the cache lives as long as the list view that owns it.
type LastMessageCache struct {
	viewerID string
	gateway  repository.MessageGateway
	manager  *live.Manager

	mu      sync.RWMutex
	latest  map[string]*entity.Message // counterpart uid -> newest message
	tokens  map[string]int             // thread id -> observer token
	tracked map[string]string          // thread id -> counterpart uid
}

func NewLastMessageCache(viewerID string, gateway repository.MessageGateway, manager *live.Manager) *LastMessageCache {
	return &LastMessageCache{
		viewerID: viewerID,
		gateway:  gateway,
		manager:  manager,
		latest:   make(map[string]*entity.Message),
		tokens:   make(map[string]int),
		tracked:  make(map[string]string),
	}
}

// Prime bulk-loads previews for the given counterparts and attaches the cache
// to each thread's live feed. A counterpart whose preview cannot be loaded is
// logged and skipped; the list renders its placeholder instead.
func (c *LastMessageCache) Prime(ctx context.Context, counterpartIDs []string) {
	for _, counterpartID := range counterpartIDs {
		if err := c.Track(ctx, counterpartID); err != nil {
			logger.Warn("Preview load failed for counterpart %s: %v", counterpartID, err)
		}
	}
}

// Track starts following one counterpart's thread. Tracking an already
// tracked counterpart is a no-op.
func (c *LastMessageCache) Track(ctx context.Context, counterpartID string) error {
	threadID := entity.ThreadIDFor(c.viewerID, counterpartID)

	c.mu.Lock()
	if _, ok := c.tracked[threadID]; ok {
		c.mu.Unlock()
		return nil
	}
	c.tracked[threadID] = counterpartID
	c.mu.Unlock()

	messages, err := c.gateway.FetchOrdered(ctx, threadID, 1, true)
	if err != nil {
		c.mu.Lock()
		delete(c.tracked, threadID)
		c.mu.Unlock()
		return err
	}
	if len(messages) > 0 {
		c.store(counterpartID, messages[0])
	}

	token, err := c.manager.Subscribe(ctx, threadID, c)
	if err != nil {
		c.mu.Lock()
		delete(c.tracked, threadID)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.tokens[threadID] = token
	c.mu.Unlock()

	return nil
}

// Get returns the newest message exchanged with a counterpart. Absence means
// "no messages yet", which the list view renders as a placeholder.
func (c *LastMessageCache) Get(counterpartID string) (*entity.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	message, ok := c.latest[counterpartID]
	return message, ok
}

// Counterparts returns the counterpart ids currently tracked.
func (c *LastMessageCache) Counterparts() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.tracked))
	for _, counterpartID := range c.tracked {
		ids = append(ids, counterpartID)
	}
	return ids
}

// Close detaches the cache from every feed it follows.
func (c *LastMessageCache) Close() {
	c.mu.Lock()
	tokens := c.tokens
	c.tokens = make(map[string]int)
	c.tracked = make(map[string]string)
	c.mu.Unlock()

	for threadID, token := range tokens {
		c.manager.Unsubscribe(threadID, token)
	}
}

// OnMessages implements live.Observer.
func (c *LastMessageCache) OnMessages(threadID string, messages []*entity.Message) {
	if len(messages) == 0 {
		return
	}

	c.mu.RLock()
	counterpartID, ok := c.tracked[threadID]
	c.mu.RUnlock()
	if !ok {
		return
	}

	c.store(counterpartID, messages[len(messages)-1])
}

// OnFeedClosed implements live.Observer. The thread is untracked so a later
// Track can open a fresh feed; the cached preview stays readable.
func (c *LastMessageCache) OnFeedClosed(threadID string, err error) {
	logger.Warn("Preview feed closed for thread %s: %v", threadID, err)

	c.mu.Lock()
	delete(c.tracked, threadID)
	delete(c.tokens, threadID)
	c.mu.Unlock()
}

func (c *LastMessageCache) store(counterpartID string, message *entity.Message) {
	msg := *message
	msg.IsFromCurrentUser = msg.SenderID == c.viewerID

	c.mu.Lock()
	c.latest[counterpartID] = &msg
	c.mu.Unlock()
}
