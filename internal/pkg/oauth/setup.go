package oauth

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	goredis "github.com/redis/go-redis/v9"

	"github.com/docsbridge/docsbridge/internal/pkg/env"
)

// Setup initializes the Google provider and the OAuth state session store.
// The Docs and Drive read scopes are requested up front so the tokens
// stored on the linked account can drive the document tools.
// It is safe to call multiple times; the provider is just re-registered.
func Setup(client *goredis.Client) {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	goth.UseProviders(
		google.New(
			env.GetEnv("GOOGLE_KEY", ""),
			env.GetEnv("GOOGLE_SECRET", ""),
			base+"/auth/google/callback",
			"email", "profile",
			"https://www.googleapis.com/auth/documents",
			"https://www.googleapis.com/auth/drive.readonly",
		),
	)

	// OAuth state via Redis, using same connection as app sessions (separate DB)
	host, port := "127.0.0.1", 6379
	var username, password string
	if client != nil {
		opts := client.Options()
		username, password = opts.Username, opts.Password
		if opts.Addr != "" {
			if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
				host = h
				if parsed, e := strconv.Atoi(p); e == nil {
					port = parsed
				}
			} else {
				host = opts.Addr
			}
		}
	}

	gothfiber.SessionStore = session.New(session.Config{
		Storage: redisstorage.New(redisstorage.Config{
			Host:     host,
			Port:     port,
			Username: username,
			Password: password,
			Database: 2,
			Reset:    false,
		}),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     time.Hour,
	})
}
