package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/errors"
)

// memStore is an in-memory stand-in for the document store. It implements
// ThreadRepository, UserRepository and MessageGateway, assigns its own
// monotonic "server" timestamps, and pushes snapshots to subscribers on every
// append, which lets tests exercise the live path end to end.
type memStore struct {
	mu      sync.Mutex
	threads map[string]*entity.ConversationThread
	users   map[string]*entity.User
	msgs    map[string][]*entity.Message
	feeds   map[string][]repository.UpdateFunc

	clock time.Time
	seq   int

	failSummary bool
	failFetch   bool

	appendCalls    int
	subscribeCalls int
}

func newMemStore(users ...*entity.User) *memStore {
	s := &memStore{
		threads: make(map[string]*entity.ConversationThread),
		users:   make(map[string]*entity.User),
		msgs:    make(map[string][]*entity.Message),
		feeds:   make(map[string][]repository.UpdateFunc),
		clock:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// ThreadRepository

func (s *memStore) GetByIDThread(ctx context.Context, id string) (*entity.ConversationThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[id]
	if !ok {
		return nil, errors.NotFound("Thread", nil)
	}
	copy := *thread
	return &copy, nil
}

func (s *memStore) Create(ctx context.Context, thread *entity.ConversationThread) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[thread.ID]; ok {
		return nil
	}

	stored := *thread
	stored.CreatedAt = s.tick()
	s.threads[thread.ID] = &stored
	return nil
}

func (s *memStore) UpdateLastMessage(ctx context.Context, threadID, summary string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSummary {
		return errors.Store("summary write refused", nil)
	}

	thread, ok := s.threads[threadID]
	if !ok {
		return errors.Store("thread missing", nil)
	}
	thread.LastMessage = summary
	thread.LastMessageAt = at
	return nil
}

// MessageGateway

func (s *memStore) Append(ctx context.Context, threadID, senderID, body string) (*entity.Message, error) {
	s.mu.Lock()
	s.appendCalls++
	s.seq++
	message := &entity.Message{
		ID:       fmt.Sprintf("m%03d", s.seq),
		ThreadID: threadID,
		SenderID: senderID,
		Body:     body,
		SentAt:   s.tick(),
	}
	s.msgs[threadID] = append(s.msgs[threadID], message)
	snapshot := s.orderedLocked(threadID, 0, false)
	feeds := append([]repository.UpdateFunc(nil), s.feeds[threadID]...)
	s.mu.Unlock()

	for _, fn := range feeds {
		fn(snapshot, nil)
	}

	return message, nil
}

func (s *memStore) FetchOrdered(ctx context.Context, threadID string, limit int, descending bool) ([]*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failFetch {
		return nil, errors.Store("fetch refused", nil)
	}
	return s.orderedLocked(threadID, limit, descending), nil
}

func (s *memStore) Subscribe(ctx context.Context, threadID string, onUpdate repository.UpdateFunc) (repository.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribeCalls++
	s.feeds[threadID] = append(s.feeds[threadID], onUpdate)
	idx := len(s.feeds[threadID]) - 1
	return &memSubscription{store: s, threadID: threadID, idx: idx}, nil
}

// seed inserts a message with an explicit timestamp, bypassing the clock.
func (s *memStore) seed(threadID string, message *entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs[threadID] = append(s.msgs[threadID], message)
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) orderedLocked(threadID string, limit int, descending bool) []*entity.Message {
	out := make([]*entity.Message, 0, len(s.msgs[threadID]))
	for _, m := range s.msgs[threadID] {
		copy := *m
		out = append(out, &copy)
	}
	entity.SortMessages(out)

	if descending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type memSubscription struct {
	store    *memStore
	threadID string
	idx      int
	once     sync.Once
}

func (s *memSubscription) Cancel() {
	s.once.Do(func() {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		feeds := s.store.feeds[s.threadID]
		if s.idx < len(feeds) {
			feeds[s.idx] = func([]*entity.Message, error) {}
		}
	})
}

// threadRepo and userRepo adapt memStore to the narrower interfaces so one
// fixture backs every collaborator.

type threadRepo struct{ *memStore }

func (r threadRepo) GetByID(ctx context.Context, id string) (*entity.ConversationThread, error) {
	return r.GetByIDThread(ctx, id)
}

type userRepo struct{ *memStore }

func (r userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copy := *user
	return &copy, nil
}
