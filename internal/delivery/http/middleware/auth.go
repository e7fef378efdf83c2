package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "rsvpdesk/internal/delivery/http/helpers"
	"rsvpdesk/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// SetUserID returns a context carrying the authenticated user ID.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user ID set by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// bearerToken pulls the token out of an Authorization header. The returned
// message describes the failure when ok is false.
func bearerToken(header string) (token, message string, ok bool) {
	if header == "" {
		return "", "missing authorization header", false
	}
	rest, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", "invalid authorization format", false
	}
	token = strings.TrimSpace(rest)
	if token == "" {
		return "", "missing token", false
	}
	return token, "", true
}

// RequireAuth wraps a handler with Bearer token verification. On success the
// user ID is placed in the request context; on failure the request is rejected
// with 401 and next never runs.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, message, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, message)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetUserID(r.Context(), userID)))
		}
	}
}
