package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
	"github.com/docsbridge/docsbridge/internal/pkg/usercontext"
)

func newAPIKeyTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	factory := repository.NewFactory(kvstore.NewMemoryStore())
	users := factory.GetUserRepository()
	apiKeys := factory.GetAPIKeyRepository()

	owner, err := users.CreateUser(context.Background(), &models.User{
		Name:  "Key Owner",
		Email: "owner@example.com",
	})
	require.NoError(t, err)

	_, secret, err := apiKeys.Issue(context.Background(), owner.ID, "test key")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/v1/whoami", APIKeyAuth(apiKeys, users, nil), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userId": usercontext.GetUserID(c)})
	})
	return app, secret
}

func TestAPIKeyAuthAcceptsHeaderAndBearer(t *testing.T) {
	app, secret := newAPIKeyTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("X-API-Key", secret)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPIKeyAuthRejectsMissingAndUnknown(t *testing.T) {
	app, _ := newAPIKeyTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("X-API-Key", "gmd_0000000000000000000000000000000000000000000000000000000000000000")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPIKeyAuthRejectsRevokedKey(t *testing.T) {
	factory := repository.NewFactory(kvstore.NewMemoryStore())
	users := factory.GetUserRepository()
	apiKeys := factory.GetAPIKeyRepository()

	owner, err := users.CreateUser(context.Background(), &models.User{Email: "owner@example.com"})
	require.NoError(t, err)
	record, secret, err := apiKeys.Issue(context.Background(), owner.ID, "short lived")
	require.NoError(t, err)
	require.NoError(t, apiKeys.Revoke(context.Background(), record.ID, owner.ID))

	app := fiber.New()
	app.Get("/v1/whoami", APIKeyAuth(apiKeys, users, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	req.Header.Set("X-API-Key", secret)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
