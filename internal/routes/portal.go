package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/account"
	"github.com/smartwin-lab/smartwin/internal/leaderboard"
	"github.com/smartwin-lab/smartwin/internal/membership"
	"github.com/smartwin-lab/smartwin/internal/middleware"
)

const dashboardTop = 3

type dashboardResponse struct {
	Account     account.View          `json:"account"`
	Tier        membership.Definition `json:"tier"`
	Permissions map[string]bool       `json:"permissions"`
	Leaders     []leaderboard.Entry   `json:"leaders"`
}

// RegisterPortalRoutes wires the member dashboard.
func RegisterPortalRoutes(api fiber.Router, board *leaderboard.Board, requireSession fiber.Handler) {
	api.Get("/dashboard", requireSession, func(c *fiber.Ctx) error {
		acct, ok := middleware.CurrentAccount(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		def, err := membership.Lookup(acct.Tier)
		if err != nil {
			return err
		}
		perms, err := membership.Permissions(acct.Tier)
		if err != nil {
			return err
		}
		return c.JSON(dashboardResponse{
			Account:     account.NewView(acct, time.Now()),
			Tier:        def,
			Permissions: perms,
			Leaders:     board.Top(dashboardTop),
		})
	})
}
