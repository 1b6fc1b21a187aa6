package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	ctx := context.Background()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		require.True(t, ok)
		require.NotNil(t, sess.Profile)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		env := newTestEnv(t)
		handler := env.svc.Middleware()(okHandler)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Authorization header missing")
	})

	t.Run("valid token injects the session", func(t *testing.T) {
		env := newTestEnv(t)
		env.addIdentity("tok-alice", "uid-alice", "alice@example.com", "Alice")
		signed, err := env.svc.SignIn(ctx, "tok-alice")
		require.NoError(t, err)

		handler := env.svc.Middleware()(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer "+signed.Token)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("disabled account surfaces its fixed message", func(t *testing.T) {
		env := newTestEnv(t)
		env.addIdentity("tok-alice", "uid-alice", "alice@example.com", "Alice")
		signed, err := env.svc.SignIn(ctx, "tok-alice")
		require.NoError(t, err)
		require.NoError(t, env.dir.UpdateStatus(ctx, "uid-alice", "disabled"))

		handler := env.svc.Middleware()(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer "+signed.Token)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), auth.MsgAccountDisabled)
	})
}

func TestRequireCapability(t *testing.T) {
	ctx := context.Background()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	newChain := func(env *testEnv, capability rbac.Capability) http.Handler {
		return env.svc.Middleware()(auth.RequireCapability(capability)(okHandler))
	}

	t.Run("viewer is denied a management route", func(t *testing.T) {
		env := newTestEnv(t)
		env.dir.Seed(sessionFor("uid-admin", rbac.RoleAdmin).Profile)
		env.addIdentity("tok-v", "uid-v", "v@example.com", "Viewer")
		signed, err := env.svc.SignIn(ctx, "tok-v")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer "+signed.Token)

		rr := httptest.NewRecorder()
		newChain(env, rbac.UserManagement).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin passes through", func(t *testing.T) {
		env := newTestEnv(t)
		env.addIdentity("tok-a", "uid-a", "a@example.com", "Admin")
		signed, err := env.svc.SignIn(ctx, "tok-a")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("Authorization", "Bearer "+signed.Token)

		rr := httptest.NewRecorder()
		newChain(env, rbac.UserManagement).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
