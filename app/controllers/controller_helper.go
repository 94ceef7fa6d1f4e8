package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/gate"
	"github.com/docsbridge/docsbridge/internal/pkg/metrics/counter"
	"github.com/docsbridge/docsbridge/internal/pkg/usercontext"
)

// Deps are the collaborators the controllers work against, injected once
// at router installation.
type Deps struct {
	Users   repository.UserRepository
	APIKeys repository.APIKeyRepository
	Gate    *gate.Gate
	Usage   *counter.Counter
	BaseURL string
}

var deps Deps

// Initialize wires the controller package. Must be called before any
// route handler runs.
func Initialize(d Deps) {
	deps = d
}

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(usercontext.KeyFromProtected); protectedValue != nil {
		fromProtected, _ = protectedValue.(bool)
	}

	return fromProtected
}

// formatTimePtr renders an optional timestamp as RFC 3339 UTC, or nil.
func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// trimID normalizes a caller-supplied identifier.
func trimID(raw string) string {
	return strings.TrimSpace(raw)
}
