package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/metrics/counter"
)

// Deps carries the shared dependencies the route handlers need.
type Deps struct {
	Users   repository.UserRepository
	APIKeys repository.APIKeyRepository
	Usage   *counter.Counter
}

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter registers all routes. The HTTP router goes first so the
// UserContext middleware is in place before the API group is mounted.
func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, NewHttpRouter(), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
