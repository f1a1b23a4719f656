package account

import (
	"context"
	"sync"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]membership.Account
	byPhone  map[string]string
	byCode   map[string]string
}

// NewMemoryRepository builds an in-memory account store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		accounts: make(map[string]membership.Account),
		byPhone:  make(map[string]string),
		byCode:   make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, acct membership.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPhone[acct.Phone]; exists {
		return ErrPhoneTaken
	}
	if _, exists := r.byCode[acct.InvitationCode]; exists {
		return ErrInvitationCodeTaken
	}
	r.accounts[acct.ID] = acct
	r.byPhone[acct.Phone] = acct.ID
	r.byCode[acct.InvitationCode] = acct.ID
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (membership.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[id]
	if !ok {
		return membership.Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) FindByPhone(ctx context.Context, phone string) (membership.Account, error) {
	r.mu.RLock()
	id, ok := r.byPhone[phone]
	r.mu.RUnlock()
	if !ok {
		return membership.Account{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *memoryRepository) FindByInvitationCode(ctx context.Context, code string) (membership.Account, error) {
	r.mu.RLock()
	id, ok := r.byCode[code]
	r.mu.RUnlock()
	if !ok {
		return membership.Account{}, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *memoryRepository) Update(_ context.Context, acct membership.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.accounts[acct.ID]
	if !ok {
		return ErrNotFound
	}
	// Credentials and identity fields are immutable once stored.
	acct.PasswordHash = current.PasswordHash
	acct.Phone = current.Phone
	acct.InvitationCode = current.InvitationCode
	acct.ReferrerPhone = current.ReferrerPhone
	acct.CreatedAt = current.CreatedAt
	r.accounts[acct.ID] = acct
	return nil
}
