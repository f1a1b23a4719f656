package purchase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/account"
	"github.com/smartwin-lab/smartwin/internal/httperr"
	"github.com/smartwin-lab/smartwin/internal/middleware"
	"github.com/smartwin-lab/smartwin/internal/session"
)

// Handler exposes purchase endpoints.
type Handler struct {
	service  *Service
	accounts AccountStore
	sessions session.Store
	logger   *slog.Logger
}

// NewHandler constructs a purchase HTTP handler.
func NewHandler(service *Service, accounts AccountStore, sessions session.Store, logger *slog.Logger) *Handler {
	return &Handler{service: service, accounts: accounts, sessions: sessions, logger: logger}
}

// Submit accepts a purchase and answers 202 with the pending order. The
// session snapshot is refreshed when the applied update arrives, unless the
// member has logged out in the meantime.
func (h *Handler) Submit(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.service.Submit(c.UserContext(), acct, req.SKU, h.refreshSession(middleware.SessionToken(c)))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.Status(http.StatusAccepted).JSON(StatusResponse{Order: newOrderResponse(order)})
}

// refreshSession writes the settled account into the submitter's session. A
// session cleared before settlement stays cleared.
func (h *Handler) refreshSession(token string) UpdateFunc {
	return func(ctx context.Context, u Update) {
		if u.Phase != PhaseApplied {
			return
		}
		if err := h.sessions.Refresh(ctx, token, u.Account); err != nil && !errors.Is(err, session.ErrNotFound) {
			h.logger.WarnContext(ctx, "session refresh after purchase failed",
				slog.String("order_id", u.Order.ID),
				slog.Any("error", err),
			)
		}
	}
}

// Status reports an order. Once applied, the authoritative account is
// returned and written back into the session.
func (h *Handler) Status(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	order, err := h.service.Get(c.UserContext(), c.Params("orderId"))
	if errors.Is(err, ErrOrderNotFound) || (err == nil && order.AccountID != acct.ID) {
		return fiber.NewError(http.StatusNotFound, ErrOrderNotFound.Error())
	}
	if err != nil {
		return err
	}

	resp := StatusResponse{Order: newOrderResponse(order)}
	if order.Status == PhaseApplied {
		current, err := h.accounts.Get(c.UserContext(), acct.ID)
		if err != nil {
			return err
		}
		if err := h.sessions.Refresh(c.UserContext(), middleware.SessionToken(c), current); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return fiber.ErrUnauthorized
			}
			return err
		}
		middleware.SetAccount(c, current)
		view := account.NewView(current, time.Now())
		resp.Account = &view
	}
	return c.JSON(resp)
}
