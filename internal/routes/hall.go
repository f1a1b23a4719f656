package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/hall"
	"github.com/smartwin-lab/smartwin/internal/purchase"
)

// RegisterPurchaseRoutes wires purchase submission and status. Submission
// runs behind the given extra middleware, typically idempotency.
func RegisterPurchaseRoutes(group fiber.Router, h *purchase.Handler, submit ...fiber.Handler) {
	group.Post("/purchases", append(submit, h.Submit)...)
	group.Get("/purchases/:orderId", h.Status)
}

// RegisterHallRoutes wires the remaining business hall actions.
func RegisterHallRoutes(group fiber.Router, h *hall.Handler) {
	group.Post("/free-claim", h.FreeClaim)
	group.Post("/activations", h.RequestActivation)
	group.Post("/pk-codes", h.SubmitPkCode)
	group.Get("/proposals", h.ListProposals)
	group.Post("/proposals", h.SubmitProposal)
	group.Post("/proposals/:proposalId/votes", h.Vote)
}
