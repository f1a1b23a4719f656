package session

import (
	"context"
	"sync"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]membership.Account
}

// NewMemoryStore builds a process-local session store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]membership.Account)}
}

func (s *memoryStore) Load(_ context.Context, token string) (membership.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.sessions[token]
	if !ok {
		return membership.Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *memoryStore) Save(_ context.Context, token string, acct membership.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct.PasswordHash = nil
	s.sessions[token] = acct
	return nil
}

func (s *memoryStore) Refresh(_ context.Context, token string, acct membership.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return ErrNotFound
	}
	acct.PasswordHash = nil
	s.sessions[token] = acct
	return nil
}

func (s *memoryStore) Clear(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
