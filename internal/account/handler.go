package account

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/httperr"
	"github.com/smartwin-lab/smartwin/internal/membership"
	"github.com/smartwin-lab/smartwin/internal/middleware"
	"github.com/smartwin-lab/smartwin/internal/session"
)

// Handler exposes account endpoints.
type Handler struct {
	service  *Service
	sessions session.Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler constructs an account HTTP handler.
func NewHandler(service *Service, sessions session.Store, logger *slog.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, logger: logger, now: time.Now}
}

type registerRequest struct {
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	InviteCode      string `json:"invite_code"`
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type aliasRequest struct {
	Alias string `json:"alias"`
}

type sessionResponse struct {
	SessionToken string `json:"session_token"`
	Account      View   `json:"account"`
}

// ProfileView is the profile page payload.
type ProfileView struct {
	Account View                  `json:"account"`
	Tier    membership.Definition `json:"tier"`
}

// Register handles member sign-up and opens a session.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	acct, err := h.service.Register(c.UserContext(), membership.Registration{
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		InviteCode:      req.InviteCode,
	})
	if err != nil {
		return toHTTPError(err)
	}
	h.logger.InfoContext(c.UserContext(), "account registered",
		slog.String("account_id", acct.ID),
		slog.Bool("referred", acct.ReferrerPhone != ""),
	)
	return h.openSession(c, http.StatusCreated, acct)
}

// Login verifies credentials and opens a new session.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	acct, err := h.service.Login(c.UserContext(), req.Phone, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	return h.openSession(c, http.StatusOK, acct)
}

// Logout clears the current session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Clear(c.UserContext(), middleware.SessionToken(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// Profile returns the profile of the session account.
func (h *Handler) Profile(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	profile, err := h.profile(acct)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// UpdateAlias changes the display alias and refreshes the session snapshot.
func (h *Handler) UpdateAlias(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req aliasRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	updated, err := h.service.UpdateAlias(c.UserContext(), acct.ID, req.Alias)
	if err != nil {
		return toHTTPError(err)
	}
	if err := h.sessions.Refresh(c.UserContext(), middleware.SessionToken(c), updated); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return fiber.ErrUnauthorized
		}
		return err
	}
	middleware.SetAccount(c, updated)

	profile, err := h.profile(updated)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *Handler) openSession(c *fiber.Ctx, status int, acct membership.Account) error {
	token := session.NewToken()
	if err := h.sessions.Save(c.UserContext(), token, acct); err != nil {
		return err
	}
	return c.Status(status).JSON(sessionResponse{SessionToken: token, Account: NewView(acct, h.now())})
}

func (h *Handler) profile(acct membership.Account) (ProfileView, error) {
	def, err := membership.Lookup(acct.Tier)
	if err != nil {
		return ProfileView{}, err
	}
	return ProfileView{Account: NewView(acct, h.now()), Tier: def}, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrPhoneTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrInvalidAlias):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return httperr.FromError(err)
	}
}
