package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

var (
	ErrNotFound                = errors.New("account not found")
	ErrPhoneTaken              = errors.New("phone number already registered")
	ErrInvitationCodeTaken     = errors.New("invitation code already assigned")
	ErrInvitationCodeExhausted = errors.New("could not allocate a unique invitation code")
	ErrInvalidCredentials      = errors.New("invalid phone number or password")
	ErrInvalidAlias            = errors.New("alias must be between 1 and 32 characters")
)

const (
	maxInvitationAttempts = 5
	maxAliasLength        = 32
)

// Service manages the account lifecycle on top of a Repository.
type Service struct {
	repo    Repository
	factory *membership.Factory
}

// NewService creates an account service. When the factory has no referrer
// directory, invite codes are resolved against the repository.
func NewService(repo Repository, factory membership.Factory) *Service {
	if factory.Referrers == nil {
		factory.Referrers = directory{repo: repo}
	}
	return &Service{repo: repo, factory: &factory}
}

// Register validates the sign-up form and stores a fresh L1 account. A
// colliding invitation code is regenerated a bounded number of times.
func (s *Service) Register(ctx context.Context, reg membership.Registration) (membership.Account, error) {
	acct, err := s.factory.Create(ctx, reg)
	if err != nil {
		return membership.Account{}, err
	}

	for attempt := 1; ; attempt++ {
		err := s.repo.Create(ctx, acct)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, ErrInvitationCodeTaken) {
			return membership.Account{}, err
		}
		if attempt == maxInvitationAttempts {
			return membership.Account{}, ErrInvitationCodeExhausted
		}
		if acct, err = s.factory.RegenerateInvitationCode(acct); err != nil {
			return membership.Account{}, err
		}
	}
}

// Login verifies a phone and password pair.
func (s *Service) Login(ctx context.Context, phone, password string) (membership.Account, error) {
	acct, err := s.repo.FindByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, ErrNotFound) {
		return membership.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return membership.Account{}, err
	}
	if !acct.CheckPassword(password) {
		return membership.Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

// Get loads the authoritative account record.
func (s *Service) Get(ctx context.Context, id string) (membership.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// Save persists the mutable fields of an account.
func (s *Service) Save(ctx context.Context, acct membership.Account) error {
	return s.repo.Update(ctx, acct)
}

// UpdateAlias sets the display alias shown on the profile and ladder.
func (s *Service) UpdateAlias(ctx context.Context, id, alias string) (membership.Account, error) {
	alias = strings.TrimSpace(alias)
	if n := utf8.RuneCountInString(alias); n == 0 || n > maxAliasLength {
		return membership.Account{}, ErrInvalidAlias
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return membership.Account{}, err
	}
	acct.DisplayAlias = alias
	if err := s.repo.Update(ctx, acct); err != nil {
		return membership.Account{}, err
	}
	return acct, nil
}

// directory resolves invite codes to referrer phones through the repository.
type directory struct {
	repo Repository
}

func (d directory) ReferrerPhone(ctx context.Context, code string) (string, error) {
	acct, err := d.repo.FindByInvitationCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("%w: %s", membership.ErrUnknownInviteCode, code)
	}
	if err != nil {
		return "", err
	}
	return acct.Phone, nil
}
