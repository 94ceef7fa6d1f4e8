package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/usercontext"
)

// HandleListAPIKeys returns the caller's keys, newest first. Secrets and
// their hashes never leave the server after issuance.
func HandleListAPIKeys(c *fiber.Ctx) error {
	keys, err := deps.APIKeys.List(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		log.Errorf("api key list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	items := make([]fiber.Map, 0, len(keys))
	for _, k := range keys {
		items = append(items, fiber.Map{
			"id":        k.ID,
			"name":      k.Name,
			"active":    k.Active,
			"createdAt": k.CreatedAt,
			"lastUsed":  formatTimePtr(k.LastUsed),
		})
	}
	return c.JSON(fiber.Map{"keys": items})
}

// HandleCreateAPIKey mints a new key. The plaintext secret appears in
// this response only; afterwards the server holds just its hash.
func HandleCreateAPIKey(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_input", "message": "request body must be JSON"})
	}

	record, plaintext, err := deps.APIKeys.Issue(c.Context(), usercontext.GetUserID(c), body.Name)
	if errors.Is(err, repository.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_input", "message": "name is required"})
	}
	if err != nil {
		log.Errorf("api key issue failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":        record.ID,
		"name":      record.Name,
		"key":       plaintext,
		"createdAt": record.CreatedAt,
	})
}

// HandleRevokeAPIKey deactivates one of the caller's keys. Keys owned by
// someone else look the same as keys that never existed.
func HandleRevokeAPIKey(c *fiber.Ctx) error {
	keyID := trimID(c.Params("id"))
	if keyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_input", "message": "key id is required"})
	}

	err := deps.APIKeys.Revoke(c.Context(), keyID, usercontext.GetUserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	if err != nil {
		log.Errorf("api key revoke failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.JSON(fiber.Map{"message": "key revoked"})
}

// HandleMe returns the authenticated user's profile.
func HandleMe(c *fiber.Ctx) error {
	appUser, err := deps.Users.GetUserByID(c.Context(), usercontext.GetUserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	if err != nil {
		log.Errorf("user lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	return c.JSON(fiber.Map{
		"id":            appUser.ID,
		"name":          appUser.Name,
		"email":         appUser.Email,
		"emailVerified": formatTimePtr(appUser.EmailVerified),
		"image":         appUser.Image,
	})
}

// HandleUsage exposes the running tool-call and key-validation counters.
func HandleUsage(c *fiber.Ctx) error {
	toolCalls, validations, err := deps.Usage.Snapshot(c.Context())
	if err != nil {
		log.Errorf("usage snapshot failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	return c.JSON(fiber.Map{
		"toolCalls":      toolCalls,
		"keyValidations": validations,
	})
}
