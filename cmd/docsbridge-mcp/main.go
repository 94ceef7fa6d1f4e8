package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/env"
	"github.com/docsbridge/docsbridge/internal/pkg/gate"
	"github.com/docsbridge/docsbridge/internal/pkg/googledocs"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
	"github.com/docsbridge/docsbridge/internal/pkg/mcpserver"
	"github.com/docsbridge/docsbridge/internal/pkg/mcpsession"
	"github.com/docsbridge/docsbridge/internal/pkg/metrics/counter"
)

// Stdio entrypoint for MCP clients. Tool traffic runs over stdin/stdout
// while state lives in the same Redis the web app uses, so an
// authorization completed in the browser is visible here immediately.
func main() {
	env.SetupEnvFile()

	client := kvstore.NewRedisClient()
	store := kvstore.NewRedisStore(client)

	factory := repository.NewFactory(store)
	users := factory.GetUserRepository()

	baseURL := env.GetEnv("PUBLIC_URL", "http://localhost:4000")
	authGate := gate.New(mcpsession.NewManager(store), mcpsession.NewBindingStore(store), baseURL)

	srv := mcpserver.New(authGate, googledocs.New(users), counter.New(client))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ServeStdio(ctx); err != nil {
		log.Fatal(err)
	}
}
