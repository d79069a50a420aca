package identity

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps identity records in a map. It exists for tests and
// for running the provider without Postgres.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[string]Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[string]Identity)}
}

func (s *InMemoryStore) ListByAccount(_ context.Context, accountID string) ([]Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Identity
	for _, id := range s.identities {
		if id.AccountID == accountID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (s *InMemoryStore) FindByIdentifier(_ context.Context, identifier string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.identities {
		if id.Identifier == identifier {
			return id, nil
		}
	}
	return Identity{}, ErrNotFound
}

func (s *InMemoryStore) Save(_ context.Context, id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id.ID] = id
	return nil
}
