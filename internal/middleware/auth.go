package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

type userCtxKey struct{}

// AccessTokenCookie is the cookie carrying the access token. The
// Authorization header is the fallback for clients that do not use cookies.
const AccessTokenCookie = "accessToken"

// AccessVerifier checks an access token and returns the embedded user id.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// UserResolver loads a user record by id.
type UserResolver interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Rejector writes the 401 response in the application's error envelope.
// Injected so this package does not depend on the handlers' response shape.
type Rejector func(ctx context.Context, w http.ResponseWriter, message string)

// Authenticate verifies the access token on every request and attaches the
// resolved user to the context. Requests without a valid token never reach
// the wrapped handler.
func Authenticate(verifier AccessVerifier, users UserResolver, reject Rejector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := TokenFromRequest(r)
			if token == "" {
				logger.Warn("request missing access token", "path", r.URL.Path)
				reject(ctx, w, "unauthorized request")
				return
			}

			userID, err := verifier.VerifyAccess(token)
			if err != nil {
				// Expired, malformed, and forged tokens are indistinguishable
				// to the client.
				logger.Warn("access token rejected", "path", r.URL.Path)
				reject(ctx, w, "invalid access token")
				return
			}

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				logger.Warn("access token user not found", "userId", userID)
				reject(ctx, w, "invalid access token")
				return
			}

			// Credentials and session state never travel with the request.
			user.Password = ""
			user.RefreshToken = ""

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// TokenFromRequest extracts the access token, preferring the cookie over the
// Authorization header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext returns the authenticated user attached by Authenticate.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(models.User)
	return user, ok
}
