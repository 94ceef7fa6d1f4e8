package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/docsbridge/docsbridge/app/controllers"
	"github.com/docsbridge/docsbridge/internal/pkg/constants"
	"github.com/docsbridge/docsbridge/internal/pkg/middleware"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// UserContext first so every handler below sees the signed-in user.
	app.Use(middleware.UserContextMiddleware)

	app.Get(constants.HomeRoute, controllers.HandleStart)
	app.Get("/ping", controllers.HandlePing)

	// Google sign-in
	app.Get(constants.LoginRoute, controllers.HandleGoogleLogin)
	app.Get(constants.CallbackRoute, controllers.HandleGoogleCallback)
	app.Get(constants.LogoutRoute, controllers.HandleLogout)

	// Email sign-in link
	app.Post(constants.LoginLinkRoute, controllers.HandleSendLoginLink)
	app.Get(constants.VerifyRoute, controllers.HandleVerifyToken)

	// Authorization handshake for connected assistants
	app.Get(constants.McpAuthRoute, controllers.HandleMcpAuthPage)
	app.Post(constants.McpAuthRoute, middleware.RequireAuth, controllers.HandleMcpAuthConfirm)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
