package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/leaderboard"
	"github.com/smartwin-lab/smartwin/internal/membership"
)

// RegisterCatalogRoutes exposes the public tier, product and ranking tables.
func RegisterCatalogRoutes(api fiber.Router, board *leaderboard.Board) {
	api.Get("/tiers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"tiers": membership.Tiers()})
	})
	api.Get("/products", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"products": membership.Products()})
	})
	api.Get("/leaderboard", board.Handler)
}
