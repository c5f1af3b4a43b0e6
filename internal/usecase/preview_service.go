package usecase

import (
	"sync"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/live"
)

// PreviewService owns one LastMessageCache per viewer. Caches are created on
// first use and live for the process; the caches themselves hold the live
// subscriptions that keep previews current between requests.
type PreviewService struct {
	gateway repository.MessageGateway
	manager *live.Manager

	mu     sync.Mutex
	caches map[string]*LastMessageCache
}

func NewPreviewService(gateway repository.MessageGateway, manager *live.Manager) *PreviewService {
	return &PreviewService{
		gateway: gateway,
		manager: manager,
		caches:  make(map[string]*LastMessageCache),
	}
}

// CacheFor returns the viewer's cache, creating it on first use.
func (s *PreviewService) CacheFor(viewerID string) *LastMessageCache {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[viewerID]
	if !ok {
		cache = NewLastMessageCache(viewerID, s.gateway, s.manager)
		s.caches[viewerID] = cache
	}
	return cache
}

// Close tears down every cache and its subscriptions.
func (s *PreviewService) Close() {
	s.mu.Lock()
	caches := s.caches
	s.caches = make(map[string]*LastMessageCache)
	s.mu.Unlock()

	for _, cache := range caches {
		cache.Close()
	}
}
