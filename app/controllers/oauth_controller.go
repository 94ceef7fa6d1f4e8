package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/session"
	"github.com/docsbridge/docsbridge/internal/pkg/usercontext"
	"github.com/docsbridge/docsbridge/internal/pkg/utils"
)

const pendingMcpSessionKey = "pending_mcp_session"

// HandleGoogleLogin starts the Google flow. When the sign-in was reached
// from an MCP authorization page, the external session id rides along in
// the cookie session so the callback can finish the handshake.
func HandleGoogleLogin(c *fiber.Ctx) error {
	if mcpSession := trimID(c.Query("session")); mcpSession != "" {
		_ = session.SetSessionValue(c, pendingMcpSessionKey, mcpSession)
	}
	return gothfiber.BeginAuthHandler(c)
}

// HandleGoogleCallback completes the provider flow, upserts the identity
// and its linked Google account, opens the browser session, and sends a
// pending MCP authorization back to the confirm page.
func HandleGoogleCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	ctx := c.Context()

	// Resolve or create the identity behind this provider account.
	appUser, err := deps.Users.GetUserByAccount(ctx, u.Provider, u.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		if u.Email != "" {
			appUser, err = deps.Users.GetUserByEmail(ctx, u.Email)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("user lookup failed: %v", err))
			}
		}
		if appUser == nil {
			now := time.Now()
			appUser, err = deps.Users.CreateUser(ctx, &models.User{
				Name:          firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
				Email:         u.Email,
				EmailVerified: &now,
				Image:         firstNonEmpty(u.AvatarURL, utils.GetGravatarURL(u.Email, 200)),
			})
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("create user failed: %v", err))
			}
		}

		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		if _, err := deps.Users.LinkAccount(ctx, &models.ProviderAccount{
			UserID:            appUser.ID,
			Provider:          u.Provider,
			ProviderAccountID: u.UserID,
			AccessToken:       u.AccessToken,
			RefreshToken:      u.RefreshToken,
			ExpiresAt:         exp,
		}); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link provider failed: %v", err))
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("store error: %v", err))
	} else {
		// Refresh the stored token pair.
		if err := deps.Users.UnlinkAccount(ctx, u.Provider, u.UserID); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("update tokens failed: %v", err))
		}
		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		if _, err := deps.Users.LinkAccount(ctx, &models.ProviderAccount{
			UserID:            appUser.ID,
			Provider:          u.Provider,
			ProviderAccountID: u.UserID,
			AccessToken:       u.AccessToken,
			RefreshToken:      u.RefreshToken,
			ExpiresAt:         exp,
		}); err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("update tokens failed: %v", err))
		}
	}

	if err := openBrowserSession(c, appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	// A pending MCP authorization rides back to the confirm page.
	if mcpSession := session.GetSessionValue(c, pendingMcpSessionKey); mcpSession != "" {
		_ = session.SetSessionValue(c, pendingMcpSessionKey, "")
		return c.Redirect("/auth/mcp?session="+mcpSession, fiber.StatusSeeOther)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

// openBrowserSession records the durable browser session and fills the
// cookie session.
func openBrowserSession(c *fiber.Ctx, appUser *models.User) error {
	browserSession, err := deps.Users.CreateSession(c.Context(), appUser.ID, time.Now().Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("session create failed: %v", err)
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return fmt.Errorf("session init failed: %v", err)
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, appUser.ID)
	sess.Set(usercontext.KeyUsername, appUser.Name)
	sess.Set(usercontext.KeyEmail, appUser.Email)
	sess.Set(usercontext.KeySessionToken, browserSession.SessionToken)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("session save failed: %v", err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
