package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	auth := app.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/verify", h.rateLimit("verify"), h.Verify)
	auth.Post("/login", h.Login)
	auth.Post("/resend-otp", h.rateLimit("resend"), h.ResendOtp)
	auth.Get("/me", h.RequireAuth, h.Me)
	auth.Post("/logout", h.RequireAuth, h.Logout)
}
