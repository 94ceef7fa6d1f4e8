package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/docsbridge/docsbridge/app/controllers"
	"github.com/docsbridge/docsbridge/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "docsbridge api",
		})
	})

	// Key management rides on the browser session.
	keys := api.Group("/keys", middleware.RequireAPISessionAuth)
	keys.Get("/", controllers.HandleListAPIKeys)
	keys.Post("/", controllers.HandleCreateAPIKey)
	keys.Delete("/:id", controllers.HandleRevokeAPIKey)

	api.Get("/me", middleware.RequireAPISessionAuth, controllers.HandleMe)
	api.Get("/usage", middleware.RequireAPISessionAuth, controllers.HandleUsage)

	// Programmatic access authenticates with an API key instead.
	v1 := api.Group("/v1", middleware.APIKeyAuth(h.deps.APIKeys, h.deps.Users, h.deps.Usage))
	v1.Get("/me", controllers.HandleMe)
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}
