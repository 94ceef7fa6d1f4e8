package constants

// Static route constants
const (
	HomeRoute        = "/"
	LoginRoute       = "/auth/google"
	CallbackRoute    = "/auth/google/callback"
	LogoutRoute      = "/logout"
	McpAuthRoute     = "/auth/mcp"
	LoginLinkRoute   = "/auth/email"
	VerifyRoute      = "/auth/verify"
	APIKeysRoute     = "/api/keys"
)
