package session

import (
	"context"
	"sync"

	"openid-provider/internal/openid"
)

// InMemoryPendingStore holds pending requests in a map keyed by session.
type InMemoryPendingStore struct {
	mu      sync.Mutex
	pending map[string]*openid.Request
}

func NewInMemoryPendingStore() *InMemoryPendingStore {
	return &InMemoryPendingStore{pending: make(map[string]*openid.Request)}
}

func (s *InMemoryPendingStore) Put(_ context.Context, sessionID string, req *openid.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = req
	return nil
}

func (s *InMemoryPendingStore) Take(_ context.Context, sessionID string) (*openid.Request, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[sessionID]
	if !ok {
		return nil, false, nil
	}
	delete(s.pending, sessionID)
	return req, true, nil
}

func (s *InMemoryPendingStore) Peek(_ context.Context, sessionID string) (*openid.Request, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.pending[sessionID]
	if !ok {
		return nil, false, nil
	}
	return req, true, nil
}
