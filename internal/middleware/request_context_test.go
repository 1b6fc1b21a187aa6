package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/middleware"
	"github.com/safeguardai/console/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext(t *testing.T) {
	var requestID string
	handler := middleware.RequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = middleware.GetRequestID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/workers", nil))

	assert.NotEmpty(t, requestID, "every request gets an ID")
}

func TestUserContext(t *testing.T) {
	session := &auth.Session{
		Profile: &directory.UserRecord{UID: "uid-alice", Role: rbac.RoleAdmin},
	}

	t.Run("tags the request with the session's user", func(t *testing.T) {
		var userID string
		handler := middleware.UserContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID = middleware.GetUserID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/workers", nil)
		req = req.WithContext(auth.NewContext(req.Context(), session))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "uid-alice", userID)
	})

	t.Run("anonymous requests pass through untagged", func(t *testing.T) {
		var userID string
		called := false
		handler := middleware.UserContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			userID = middleware.GetUserID(r.Context())
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/workers", nil))

		require.True(t, called)
		assert.Empty(t, userID)
	})

	t.Run("runs after the session middleware in a chain", func(t *testing.T) {
		var userID string
		inner := middleware.UserContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID = middleware.GetUserID(r.Context())
		}))
		outer := middleware.RequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inner.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), session)))
		}))

		outer.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/workers", nil))

		assert.Equal(t, "uid-alice", userID)
	})
}
