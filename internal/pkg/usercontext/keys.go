package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyEmail         = "email"
	KeyFromProtected = "from_protected"
	KeySessionToken  = "session_token"
)
