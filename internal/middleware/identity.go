// File: internal/middleware/identity.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iyunix/go-sage/internal/services"
)

// TokenValidator resolves an auth token to a user ID.
type TokenValidator interface {
	ValidateToken(token string) (uint, error)
}

var ErrNoIdentity = errors.New("no identity in context")

// NewIdentityMiddleware puts the caller's owner ID into the request context.
// A valid auth token yields "user:<id>"; otherwise the anonymous cookie is
// used, and minted when missing. Requests are never rejected here.
func NewIdentityMiddleware(validator TokenValidator, secureCookies bool, logger services.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = &services.NoOpLogger{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
				userID, err := validator.ValidateToken(cookie.Value)
				if err == nil {
					ctx = context.WithValue(ctx, UserIDKey, userID)
					ctx = context.WithValue(ctx, OwnerIDKey, "user:"+strconv.FormatUint(uint64(userID), 10))
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				logger.Debug("discarding invalid auth token", "path", r.URL.Path, "error", err)
				ClearAuthCookie(w, secureCookies)
			}

			anonID := ""
			if cookie, err := r.Cookie(AnonCookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					anonID = id.String()
				}
			}
			if anonID == "" {
				anonID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     AnonCookieName,
					Value:    anonID,
					Path:     "/",
					MaxAge:   anonCookieTTL,
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = context.WithValue(ctx, OwnerIDKey, anonOwnerPrefix+anonID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests without an authenticated user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SetAuthCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(OwnerIDKey).(string)
	return owner, ok && owner != ""
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDKey).(uint)
	return id, ok && id != 0
}

// ContextIdentity resolves the owner placed by NewIdentityMiddleware. Its
// signature matches tutor.IdentityFunc.
func ContextIdentity(ctx context.Context) (string, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return "", ErrNoIdentity
	}
	return owner, nil
}
