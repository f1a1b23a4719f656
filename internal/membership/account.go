package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	phoneLength       = 11
	minPasswordLength = 6
	aliasFallback     = "Hunter_"
)

// Account is a member record. It is created by Factory.Create and changed
// only through Engine outputs; persistence belongs to the caller.
type Account struct {
	ID                string     `json:"id"`
	Phone             string     `json:"phone"`
	PasswordHash      []byte     `json:"-"`
	DisplayAlias      string     `json:"display_alias,omitempty"`
	Tier              Tier       `json:"tier"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	InvitationCode    string     `json:"invitation_code"`
	ReferrerPhone     string     `json:"referrer_phone,omitempty"`
	CommissionBalance int64      `json:"commission_balance"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DisplayName returns the alias, or Hunter_ plus the last four phone digits.
func (a Account) DisplayName() string {
	if alias := strings.TrimSpace(a.DisplayAlias); alias != "" {
		return alias
	}
	suffix := a.Phone
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return aliasFallback + suffix
}

// Expired reports whether a time-limited membership has lapsed at now.
// Accounts without an expiry never expire.
func (a Account) Expired(now time.Time) bool {
	return a.ExpiryDate != nil && !now.Before(*a.ExpiryDate)
}

// CanAccess resolves a capability for the account's tier.
func (a Account) CanAccess(capability Capability) (bool, error) {
	return CanAccess(a.Tier, capability)
}

// CheckPassword compares a plaintext password with the stored hash.
func (a Account) CheckPassword(password string) bool {
	return len(a.PasswordHash) > 0 && bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) == nil
}

// Registration is the input of the sign-up form.
type Registration struct {
	Phone           string
	Password        string
	ConfirmPassword string
	InviteCode      string
}

// ReferrerDirectory resolves an invitation code to the phone of the account
// that owns it. Unknown codes must yield ErrUnknownInviteCode.
type ReferrerDirectory interface {
	ReferrerPhone(ctx context.Context, invitationCode string) (string, error)
}

// Factory creates new accounts.
type Factory struct {
	Codes *CodeGenerator
	// Referrers validates invite codes. Without it the code is stored as the
	// referrer reference unchecked.
	Referrers ReferrerDirectory
	// HashCost is the bcrypt cost; zero selects bcrypt.DefaultCost.
	HashCost int
	Now      func() time.Time
}

// Create validates a registration and builds a fresh L1 account.
func (f *Factory) Create(ctx context.Context, reg Registration) (Account, error) {
	if !validPhone(reg.Phone) {
		return Account{}, ErrInvalidPhone
	}
	if utf8.RuneCountInString(reg.Password) < minPasswordLength {
		return Account{}, ErrWeakPassword
	}
	if reg.Password != reg.ConfirmPassword {
		return Account{}, ErrPasswordMismatch
	}

	referrer, err := f.resolveReferrer(ctx, reg.InviteCode)
	if err != nil {
		return Account{}, err
	}

	code, err := f.Codes.GenerateInvitationCode()
	if err != nil {
		return Account{}, err
	}

	cost := f.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	return Account{
		ID:                uuid.NewString(),
		Phone:             reg.Phone,
		PasswordHash:      hash,
		Tier:              TierL1,
		ExpiryDate:        nil,
		InvitationCode:    code,
		ReferrerPhone:     referrer,
		CommissionBalance: 0,
		CreatedAt:         f.now(),
	}, nil
}

// RegenerateInvitationCode returns a copy of the account with a new code.
// It is meant for resolving collisions before the account is first stored.
func (f *Factory) RegenerateInvitationCode(acct Account) (Account, error) {
	code, err := f.Codes.GenerateInvitationCode()
	if err != nil {
		return Account{}, err
	}
	acct.InvitationCode = code
	return acct, nil
}

func (f *Factory) resolveReferrer(ctx context.Context, inviteCode string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return "", nil
	}
	if f.Referrers == nil {
		return code, nil
	}
	phone, err := f.Referrers.ReferrerPhone(ctx, code)
	if err != nil {
		if errors.Is(err, ErrUnknownInviteCode) {
			return "", err
		}
		return "", fmt.Errorf("resolve invite code: %w", err)
	}
	return phone, nil
}

func (f *Factory) now() time.Time {
	if f.Now != nil {
		return f.Now().UTC()
	}
	return time.Now().UTC()
}

func validPhone(phone string) bool {
	return len(phone) == phoneLength && isDigits(phone)
}
