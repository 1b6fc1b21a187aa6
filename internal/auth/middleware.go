package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/safeguardai/console/internal/rbac"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFromContext returns the session injected by Middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok
}

// NewContext returns ctx carrying sess, the same shape Middleware
// injects.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// Middleware authenticates the bearer token on every request and
// injects the resolved session into the request context. A disabled
// account is rejected with its fixed message so the client can force
// sign-out.
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Authorization header missing or malformed.")
				return
			}

			sess, err := s.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrAccountDisabled) {
					unauthorized(w, MsgAccountDisabled)
					return
				}
				unauthorized(w, "Session not found or expired.")
				return
			}

			ctx := NewContext(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability gates a route subtree on one matrix capability.
// It must run after Middleware.
func RequireCapability(capability rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				unauthorized(w, "Session not found or expired.")
				return
			}
			if !sess.HasCapability(capability) {
				writeJSONError(w, http.StatusForbidden, "forbidden", "You do not have permission to access this resource.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimPrefix(header, prefix)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", message)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
