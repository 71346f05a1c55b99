package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

type identityCtxKey struct{}

// AccessCookie is the cookie carrying the access token.
const AccessCookie = "accessToken"

// AccessValidator checks an access token and returns its claims.
type AccessValidator interface {
	ValidateAccess(token string) (auth.Claims, error)
}

// UserLoader resolves the authenticated caller's full record.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Authenticate guards protected routes. It extracts the access token from the
// accessToken cookie or the Authorization header (cookie takes precedence),
// validates it and attaches the caller's record to the request context. Every
// failure mode answers with the same 401 so callers cannot tell which check
// rejected them.
func Authenticate(tokens AccessValidator, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := tokenFromRequest(r)
			if token == "" {
				denyUnauthenticated(ctx, w)
				return
			}

			claims, err := tokens.ValidateAccess(token)
			if err != nil {
				denyUnauthenticated(ctx, w)
				return
			}

			user, err := users.FindByID(ctx, claims.UserID)
			if err != nil {
				denyUnauthenticated(ctx, w)
				return
			}

			ctx = WithIdentity(ctx, user.Public())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity stores the authenticated caller on the context.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, user)
}

// IdentityFromContext retrieves the authenticated caller attached by Authenticate.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(identityCtxKey{}).(models.User)
	return user, ok
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}

	return ""
}

func denyUnauthenticated(ctx context.Context, w http.ResponseWriter) {
	logging.FromContext(ctx).Warn("request rejected", "status", http.StatusUnauthorized)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "authentication invalid"})
}
