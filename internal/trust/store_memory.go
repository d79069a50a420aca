package trust

import (
	"context"
	"sync"
)

// InMemoryStore keeps trust roots in a slice per identity. Duplicates are
// stored as-is, matching the durable implementation.
type InMemoryStore struct {
	mu    sync.RWMutex
	roots map[string][]TrustRoot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{roots: make(map[string][]TrustRoot)}
}

func (s *InMemoryStore) Exists(_ context.Context, identityID, trustRoot string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.roots[identityID] {
		if rec.TrustRoot == trustRoot {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) Create(_ context.Context, rec TrustRoot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots[rec.IdentityID] = append(s.roots[rec.IdentityID], rec)
	return nil
}

func (s *InMemoryStore) ListByIdentity(_ context.Context, identityID string) ([]TrustRoot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TrustRoot, len(s.roots[identityID]))
	copy(out, s.roots[identityID])
	return out, nil
}
