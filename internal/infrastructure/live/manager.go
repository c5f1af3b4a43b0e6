package live

import (
	"context"
	"sync"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/logger"
)

// Observer receives ordered message batches for threads it subscribed to.
// Callbacks for one thread are never invoked concurrently.
type Observer interface {
	// OnMessages delivers the full current ordered sequence for the thread.
	OnMessages(threadID string, messages []*entity.Message)

	// OnFeedClosed reports a terminal feed failure. The manager has already
	// dropped the feed; a fresh Subscribe starts a new lifecycle.
	OnFeedClosed(threadID string, err error)
}

// Manager owns the live feeds of this process. It guarantees at most one
// underlying store subscription per thread id: a second Subscribe for a
// tracked thread attaches to the existing feed instead of opening another
// listener.
type Manager struct {
	gateway repository.MessageGateway

	mu        sync.Mutex
	feeds     map[string]*feed
	nextToken int
}

type feed struct {
	threadID  string
	sub       repository.Subscription
	observers map[int]Observer

	// deliverMu serializes every delivery for this thread, including the
	// replay a late observer gets on attach.
	deliverMu sync.Mutex
	latest    []*entity.Message
	hasLatest bool
}

func NewManager(gateway repository.MessageGateway) *Manager {
	return &Manager{
		gateway: gateway,
		feeds:   make(map[string]*feed),
	}
}

// Subscribe registers an observer for a thread, opening the underlying feed
// only if none is active. The returned token identifies the observer for
// Unsubscribe. A late observer immediately receives the most recent batch.
func (m *Manager) Subscribe(ctx context.Context, threadID string, observer Observer) (int, error) {
	m.mu.Lock()

	f, ok := m.feeds[threadID]
	if !ok {
		f = &feed{
			threadID:  threadID,
			observers: make(map[int]Observer),
		}
		m.feeds[threadID] = f

		sub, err := m.gateway.Subscribe(ctx, threadID, func(messages []*entity.Message, err error) {
			if err != nil {
				m.closeFeed(f, err)
				return
			}
			m.deliver(f, messages)
		})
		if err != nil {
			delete(m.feeds, threadID)
			m.mu.Unlock()
			return 0, err
		}
		f.sub = sub
	}

	m.nextToken++
	token := m.nextToken
	f.observers[token] = observer
	m.mu.Unlock()

	f.deliverMu.Lock()
	if f.hasLatest {
		observer.OnMessages(threadID, f.latest)
	}
	f.deliverMu.Unlock()

	return token, nil
}

// Unsubscribe detaches one observer. When the last observer leaves, the
// underlying feed is cancelled. Unknown thread or token is a no-op.
func (m *Manager) Unsubscribe(threadID string, token int) {
	m.mu.Lock()
	f, ok := m.feeds[threadID]
	if !ok {
		m.mu.Unlock()
		return
	}

	delete(f.observers, token)

	var sub repository.Subscription
	if len(f.observers) == 0 {
		sub = f.sub
		delete(m.feeds, threadID)
	}
	m.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// Active reports whether a live feed is currently open for the thread.
func (m *Manager) Active(threadID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.feeds[threadID]
	return ok
}

// Close cancels every feed. Observers are not notified; this is the
// deterministic teardown path when the owning process shuts down.
func (m *Manager) Close() {
	m.mu.Lock()
	feeds := m.feeds
	m.feeds = make(map[string]*feed)
	m.mu.Unlock()

	for _, f := range feeds {
		if f.sub != nil {
			f.sub.Cancel()
		}
	}
}

func (m *Manager) deliver(f *feed, messages []*entity.Message) {
	m.mu.Lock()
	if m.feeds[f.threadID] != f {
		// Feed was cancelled while this delivery was in flight.
		m.mu.Unlock()
		return
	}
	observers := make([]Observer, 0, len(f.observers))
	for _, o := range f.observers {
		observers = append(observers, o)
	}
	m.mu.Unlock()

	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.latest = messages
	f.hasLatest = true
	for _, o := range observers {
		o.OnMessages(f.threadID, messages)
	}
}

func (m *Manager) closeFeed(f *feed, err error) {
	m.mu.Lock()
	if m.feeds[f.threadID] != f {
		m.mu.Unlock()
		return
	}
	delete(m.feeds, f.threadID)
	observers := make([]Observer, 0, len(f.observers))
	for _, o := range f.observers {
		observers = append(observers, o)
	}
	m.mu.Unlock()

	logger.Warn("Live feed closed for thread %s: %v", f.threadID, err)

	if f.sub != nil {
		f.sub.Cancel()
	}

	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	for _, o := range observers {
		o.OnFeedClosed(f.threadID, err)
	}
}
