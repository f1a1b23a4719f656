package hall

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/smartwin-lab/smartwin/internal/httperr"
	"github.com/smartwin-lab/smartwin/internal/middleware"
)

// Handler exposes business hall endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a hall HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type freeClaimRequest struct {
	TradingAccountID string `json:"trading_account_id"`
}

type freeClaimResponse struct {
	AuthorizationCode string    `json:"authorization_code"`
	TradingAccountID  string    `json:"trading_account_id"`
	IssuedAt          time.Time `json:"issued_at"`
}

type activationRequest struct {
	Platform         string `json:"platform"`
	TradingAccountID string `json:"trading_account_id"`
}

type pkCodeRequest struct {
	Alias  string `json:"alias"`
	PkCode string `json:"pk_code"`
}

type proposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FreeClaim issues the free-edition authorization code.
func (h *Handler) FreeClaim(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req freeClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	grant, err := h.service.FreeClaim(c.UserContext(), acct, req.TradingAccountID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(freeClaimResponse{
		AuthorizationCode: grant.Code,
		TradingAccountID:  grant.TradingAccountID,
		IssuedAt:          grant.IssuedAt,
	})
}

// RequestActivation records a paid EA activation request.
func (h *Handler) RequestActivation(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req activationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	receipt, err := h.service.RequestActivation(c.UserContext(), acct, req.Platform, req.TradingAccountID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusAccepted).JSON(receipt)
}

// SubmitPkCode records a ladder submission.
func (h *Handler) SubmitPkCode(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req pkCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	receipt, err := h.service.SubmitPkCode(c.UserContext(), acct, req.Alias, req.PkCode)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusAccepted).JSON(receipt)
}

// ListProposals returns the open proposals.
func (h *Handler) ListProposals(c *fiber.Ctx) error {
	proposals, err := h.service.Proposals(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"proposals": proposals})
}

// SubmitProposal opens a proposal.
func (h *Handler) SubmitProposal(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req proposalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.service.SubmitProposal(c.UserContext(), acct, req.Title, req.Description)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(p)
}

// Vote casts a ballot on the proposal in the path.
func (h *Handler) Vote(c *fiber.Ctx) error {
	acct, ok := middleware.CurrentAccount(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	p, err := h.service.Vote(c.UserContext(), acct, utils.CopyString(c.Params("proposalId")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(p)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrProposalNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyVoted):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return httperr.FromError(err)
	}
}
