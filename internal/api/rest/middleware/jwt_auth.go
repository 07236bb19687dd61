package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ecomstack/api-gateway/internal/api/rest/response"
	"github.com/ecomstack/api-gateway/internal/identity"
)

type contextKey string

const (
	BearerPrefix = "bearer"

	identityContextKey contextKey = "identity"

	unauthorizedCategory = "unauthorized"
)

// JWTAuthMiddleware authenticates requests with a bearer token, sets the
// caller identity in the request context, and rewrites the identity into the
// downstream X-User header in place of the Authorization header.
type JWTAuthMiddleware struct {
	secret []byte
}

// NewJWTAuthMiddleware creates a middleware verifying HS256 tokens signed with
// the given shared secret.
func NewJWTAuthMiddleware(secret []byte) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{secret: secret}
}

// Handler returns an HTTP middleware that rejects unauthenticated requests
// before any downstream call is issued.
func (m *JWTAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractBearerToken(r)
		if err != nil {
			response.WriteError(w, http.StatusUnauthorized, unauthorizedCategory, "Authorization token required")
			return
		}

		id, err := identity.ParseToken(m.secret, tokenString)
		if err != nil {
			response.WriteError(w, http.StatusUnauthorized, unauthorizedCategory, "Authorization error")
			return
		}

		// Downstream services act on the X-User header, never the raw token.
		if err := id.SetHeader(r); err != nil {
			response.WriteError(w, http.StatusUnauthorized, unauthorizedCategory, "Authorization error")
			return
		}
		r.Header.Del("Authorization")

		ctx := context.WithValue(r.Context(), identityContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken extracts the JWT token from the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], BearerPrefix) {
		return "", errors.New("invalid authorization format")
	}

	return parts[1], nil
}

// IdentityFromContext extracts the authenticated identity from the request context.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(identity.Identity)
	return id, ok
}
