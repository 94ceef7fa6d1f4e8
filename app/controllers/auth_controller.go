package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/mail"
	"github.com/docsbridge/docsbridge/internal/pkg/session"
	"github.com/docsbridge/docsbridge/internal/pkg/usercontext"
	"github.com/docsbridge/docsbridge/internal/pkg/utils"
)

// HandleMcpAuthPage is the human-facing side of the authorization
// handshake. Signed-out visitors are sent through Google sign-in first,
// carrying the external session id along.
func HandleMcpAuthPage(c *fiber.Ctx) error {
	mcpSession := trimID(c.Query("session"))
	if mcpSession == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing session parameter")
	}

	if !isLoggedIn(c) {
		return c.Redirect("/auth/google?session="+mcpSession, fiber.StatusSeeOther)
	}

	return c.Render("auth_mcp", fiber.Map{
		"Session":  mcpSession,
		"Username": usercontext.GetUsername(c),
		"Email":    usercontext.GetUserContext(c).Email,
	})
}

// HandleMcpAuthConfirm completes the handshake for the session id posted
// back from the confirm form. The id from the form is authoritative, not
// whatever the caller connection is currently bound to.
func HandleMcpAuthConfirm(c *fiber.Ctx) error {
	if !isLoggedIn(c) {
		return c.Redirect("/auth/google", fiber.StatusSeeOther)
	}

	mcpSession := trimID(c.FormValue("session"))
	if mcpSession == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing session parameter")
	}

	if err := deps.Gate.CompleteAuthorization(c.Context(), mcpSession, usercontext.GetUserID(c)); err != nil {
		log.Errorf("complete authorization failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("authorization failed, please retry")
	}

	return c.Render("auth_success", fiber.Map{
		"Username": usercontext.GetUsername(c),
	})
}

// HandleLogout tears down both the durable browser session and the cookie.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if token, ok := sess.Get(usercontext.KeySessionToken).(string); ok && token != "" {
			if err := deps.Users.DeleteSession(c.Context(), token); err != nil {
				log.Warnf("browser session delete failed: %v", err)
			}
		}
		if err := sess.Destroy(); err != nil {
			log.Warnf("cookie session destroy failed: %v", err)
		}
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleSendLoginLink mails a single-use sign-in link for callers that
// prefer email over the Google flow.
func HandleSendLoginLink(c *fiber.Ctx) error {
	email := trimID(c.FormValue("email"))
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_input", "message": "email is required"})
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}
	token := hex.EncodeToString(b)

	err := deps.Users.CreateVerificationToken(c.Context(), &models.VerificationToken{
		Identifier: email,
		Token:      token,
		Expires:    time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		log.Errorf("verification token create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error"})
	}

	link := fmt.Sprintf("%s/auth/verify?identifier=%s&token=%s", deps.BaseURL, url.QueryEscape(email), token)
	if err := mail.SendVerificationLink(email, link); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "mail_failed"})
	}

	return c.JSON(fiber.Map{"message": "sign-in link sent"})
}

// HandleVerifyToken consumes a mailed sign-in token. Tokens are single
// use; a replayed link lands here with "not found".
func HandleVerifyToken(c *fiber.Ctx) error {
	identifier := trimID(c.Query("identifier"))
	token := trimID(c.Query("token"))
	if identifier == "" || token == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing identifier or token")
	}

	vt, err := deps.Users.UseVerificationToken(c.Context(), identifier, token)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).SendString("link is invalid or was already used")
	}
	if err != nil {
		log.Errorf("verification token consume failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("sign-in failed, please retry")
	}
	if vt.Expires.Before(time.Now()) {
		return c.Status(fiber.StatusUnauthorized).SendString("link has expired")
	}

	appUser, err := deps.Users.GetUserByEmail(c.Context(), identifier)
	if errors.Is(err, repository.ErrNotFound) {
		now := time.Now()
		appUser, err = deps.Users.CreateUser(c.Context(), &models.User{
			Email:         identifier,
			EmailVerified: &now,
			Image:         utils.GetGravatarURL(identifier, 200),
		})
	}
	if err != nil {
		log.Errorf("user resolve failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("sign-in failed, please retry")
	}

	if err := openBrowserSession(c, appUser); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
