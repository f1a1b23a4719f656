package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/logging"
	"github.com/smartwin-lab/smartwin/internal/membership"
	"github.com/smartwin-lab/smartwin/internal/session"
)

func TestSession(t *testing.T) {
	store := session.NewMemoryStore()
	acct := membership.Account{ID: "acct-1", Phone: "13800138000", Tier: membership.TierL2}
	if err := store.Save(context.Background(), "good", acct); err != nil {
		t.Fatalf("save: %v", err)
	}

	app := fiber.New()
	app.Use(RequestID(), Session(store, logging.Discard()))
	app.Get("/me", func(c *fiber.Ctx) error {
		current, ok := CurrentAccount(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"id": current.ID, "token": SessionToken(c), "request_id": RequestIDFrom(c)})
	})

	cases := []struct {
		token  string
		status int
	}{
		{"", fiber.StatusUnauthorized},
		{"unknown", fiber.StatusUnauthorized},
		{"good", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		if tc.token != "" {
			req.Header.Set(SessionHeader, tc.token)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("token %q: expected %d got %d", tc.token, tc.status, resp.StatusCode)
		}
		if resp.Header.Get(requestIDHeader) == "" {
			t.Fatalf("token %q: missing request id header", tc.token)
		}
	}
}
