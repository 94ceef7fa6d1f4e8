package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/docsbridge/docsbridge/internal/pkg/usercontext"
)

// HandleStart renders the landing page.
func HandleStart(c *fiber.Ctx) error {
	uctx := usercontext.GetUserContext(c)
	return c.Render("index", fiber.Map{
		"IsLoggedIn": uctx.IsLoggedIn,
		"Username":   uctx.Username,
		"Email":      uctx.Email,
	})
}

// HandlePing is a plain liveness endpoint.
func HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
