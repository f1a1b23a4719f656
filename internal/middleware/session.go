package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/smartwin-lab/smartwin/internal/membership"
	"github.com/smartwin-lab/smartwin/internal/session"
)

const (
	// SessionHeader carries the token returned by register and login.
	SessionHeader = "X-Session-Token"

	accountLocal = "account"
	tokenLocal   = "session_token"
)

// Session resolves the session token into the stored account snapshot and
// rejects the request when it is missing or unknown.
func Session(store session.Store, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Fiber reuses header memory; the token outlives the request in
		// settlement callbacks.
		token := utils.CopyString(strings.TrimSpace(c.Get(SessionHeader)))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session token")
		}

		acct, err := store.Load(c.UserContext(), token)
		if errors.Is(err, session.ErrNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired or unknown")
		}
		if err != nil {
			logger.ErrorContext(c.UserContext(), "session lookup failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "session store failure")
		}

		SetAccount(c, acct)
		c.Locals(tokenLocal, token)
		return c.Next()
	}
}

// CurrentAccount returns the account snapshot attached by Session.
func CurrentAccount(c *fiber.Ctx) (membership.Account, bool) {
	acct, ok := c.Locals(accountLocal).(membership.Account)
	return acct, ok
}

// SetAccount replaces the snapshot for the rest of the request, typically
// after a handler has persisted a change.
func SetAccount(c *fiber.Ctx, acct membership.Account) {
	c.Locals(accountLocal, acct)
}

// SessionToken returns the token attached by Session.
func SessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenLocal).(string)
	return token
}
