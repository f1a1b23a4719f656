package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smartwin-lab/smartwin/internal/account"
)

// RegisterAccountRoutes wires sign-up, login, logout and the profile page.
func RegisterAccountRoutes(api fiber.Router, h *account.Handler, requireSession fiber.Handler) {
	accounts := api.Group("/accounts")
	accounts.Post("/register", h.Register)
	accounts.Post("/login", h.Login)
	accounts.Post("/logout", requireSession, h.Logout)

	api.Get("/profile", requireSession, h.Profile)
	api.Put("/profile/alias", requireSession, h.UpdateAlias)
}
