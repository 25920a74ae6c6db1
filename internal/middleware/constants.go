// File: internal/middleware/constants.go
package middleware

// Context keys for middleware communication
type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	OwnerIDKey   contextKey = "owner_id"
	RequestIDKey contextKey = "request_id"
)

const (
	AuthCookieName = "auth_token"
	AnonCookieName = "sage_anon_id"

	anonOwnerPrefix = "anon:"
	anonCookieTTL   = 365 * 24 * 60 * 60 // seconds
)
