package account

import (
	"context"
	"sync"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[string]Account)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.accounts[id]; ok {
		return acc, nil
	}
	return Account{}, ErrNotFound
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.Username == username {
			return acc, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *InMemoryStore) Save(_ context.Context, acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = acc
	return nil
}
