package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/smartwin-lab/smartwin/internal/membership"
)

// ErrNotFound is returned when a token has no stored session.
var ErrNotFound = errors.New("session not found")

// Store holds the account snapshot of each signed-in session. Save creates
// or overwrites a session; Refresh only replaces an existing one and returns
// ErrNotFound once the session has been cleared or has expired.
type Store interface {
	Load(ctx context.Context, token string) (membership.Account, error)
	Save(ctx context.Context, token string, acct membership.Account) error
	Refresh(ctx context.Context, token string, acct membership.Account) error
	Clear(ctx context.Context, token string) error
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}
