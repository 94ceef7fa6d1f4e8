package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/docsbridge/docsbridge/internal/pkg/session"
	"github.com/docsbridge/docsbridge/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// from the cookie session, so controllers read one place.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on the OAuth
	// routes; Goth keeps its own fiber session store and per-request
	// locals there.
	if strings.HasPrefix(c.Path(), "/auth/google") {
		return c.Next()
	}

	anonymous := func() error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		c.Locals(usercontext.KeyFromProtected, false)
		return c.Next()
	}

	store := session.GetSessionStore()
	if store == nil {
		return anonymous()
	}
	sess, err := store.Get(c)
	if err != nil {
		return anonymous()
	}

	userID, _ := sess.Get(usercontext.KeyUserID).(string)
	if userID == "" {
		return anonymous()
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)
	email, _ := sess.Get(usercontext.KeyEmail).(string)

	userCtx := usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		Email:      email,
		IsLoggedIn: true,
	}
	c.Locals("USER_CONTEXT", userCtx)
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, userID)
	c.Locals(usercontext.KeyUsername, username)

	return c.Next()
}
