package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/docsbridge/docsbridge/app/controllers"
	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/env"
	"github.com/docsbridge/docsbridge/internal/pkg/gate"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
	"github.com/docsbridge/docsbridge/internal/pkg/mcpsession"
	"github.com/docsbridge/docsbridge/internal/pkg/metrics/counter"
	"github.com/docsbridge/docsbridge/internal/pkg/oauth"
	"github.com/docsbridge/docsbridge/internal/pkg/router"
	"github.com/docsbridge/docsbridge/internal/pkg/session"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	client := kvstore.NewRedisClient()
	store := kvstore.NewRedisStore(client)

	factory := repository.NewFactory(store)
	users := factory.GetUserRepository()
	apiKeys := factory.GetAPIKeyRepository()

	baseURL := env.GetEnv("PUBLIC_URL", "http://localhost:4000")
	authGate := gate.New(mcpsession.NewManager(store), mcpsession.NewBindingStore(store), baseURL)
	usage := counter.New(client)

	session.NewSessionStore(client)
	oauth.Setup(client)

	controllers.Initialize(controllers.Deps{
		Users:   users,
		APIKeys: apiKeys,
		Gate:    authGate,
		Usage:   usage,
		BaseURL: baseURL,
	})

	engine := html.New("./views", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())
	app.Static("/", "./public/assets")

	router.InstallRouter(app, router.Deps{
		Users:   users,
		APIKeys: apiKeys,
		Usage:   usage,
	})

	return app
}
