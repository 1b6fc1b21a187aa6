package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/rbac"
	"github.com/safeguardai/console/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	tdb := testutil.NewTestDatabase(t)
	store := tdb.Users()

	record := func(uid, email string, role rbac.Role) *directory.UserRecord {
		return &directory.UserRecord{
			UID:       uid,
			Name:      uid,
			Email:     email,
			Role:      role,
			Status:    directory.StatusActive,
			CreatedAt: time.Now().UTC(),
		}
	}

	t.Run("get round trip", func(t *testing.T) {
		tdb.Truncate(t)
		require.NoError(t, store.Create(ctx, record("uid-1", "one@example.com", rbac.RoleAdmin)))

		got, err := store.Get(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, "one@example.com", got.Email)
		assert.Equal(t, rbac.RoleAdmin, got.Role)
		assert.False(t, got.IsInvite)
	})

	t.Run("missing uid is ErrNotFound", func(t *testing.T) {
		tdb.Truncate(t)
		_, err := store.Get(ctx, "uid-ghost")
		assert.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("invite lookup is case-insensitive and invite-only", func(t *testing.T) {
		tdb.Truncate(t)
		invite := record(directory.InviteUID("invitee@example.com"), "invitee@example.com", rbac.RoleStaff)
		invite.IsInvite = true
		require.NoError(t, store.Create(ctx, invite))
		require.NoError(t, store.Create(ctx, record("uid-real", "real@example.com", rbac.RoleViewer)))

		got, err := store.FindInviteByEmail(ctx, "INVITEE@Example.com")
		require.NoError(t, err)
		assert.True(t, got.IsInvite)

		_, err = store.FindInviteByEmail(ctx, "real@example.com")
		assert.ErrorIs(t, err, directory.ErrNotFound)
	})

	t.Run("email existence covers invites and users", func(t *testing.T) {
		tdb.Truncate(t)
		require.NoError(t, store.Create(ctx, record("uid-1", "taken@example.com", rbac.RoleViewer)))

		exists, err := store.EmailExists(ctx, "Taken@Example.COM")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = store.EmailExists(ctx, "free@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("role counting and admin detection", func(t *testing.T) {
		tdb.Truncate(t)
		require.NoError(t, store.Create(ctx, record("uid-a", "a@example.com", rbac.RoleAdmin)))
		require.NoError(t, store.Create(ctx, record("uid-s1", "s1@example.com", rbac.RoleStaff)))
		require.NoError(t, store.Create(ctx, record("uid-s2", "s2@example.com", rbac.RoleStaff)))

		count, err := store.CountByRole(ctx, rbac.RoleStaff)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		exists, err := store.AdminExists(ctx)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("list orders newest first", func(t *testing.T) {
		tdb.Truncate(t)
		older := record("uid-old", "old@example.com", rbac.RoleViewer)
		older.CreatedAt = time.Now().UTC().Add(-time.Hour)
		require.NoError(t, store.Create(ctx, older))
		require.NoError(t, store.Create(ctx, record("uid-new", "new@example.com", rbac.RoleViewer)))

		records, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "uid-new", records[0].UID)
	})

	t.Run("updates and delete report missing records", func(t *testing.T) {
		tdb.Truncate(t)
		require.NoError(t, store.Create(ctx, record("uid-1", "one@example.com", rbac.RoleViewer)))

		require.NoError(t, store.UpdateRole(ctx, "uid-1", rbac.RoleStaff))
		require.NoError(t, store.UpdateStatus(ctx, "uid-1", directory.StatusDisabled))

		got, err := store.Get(ctx, "uid-1")
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleStaff, got.Role)
		assert.Equal(t, directory.StatusDisabled, got.Status)

		assert.ErrorIs(t, store.UpdateRole(ctx, "uid-ghost", rbac.RoleStaff), directory.ErrNotFound)
		assert.ErrorIs(t, store.UpdateStatus(ctx, "uid-ghost", directory.StatusActive), directory.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "uid-ghost"), directory.ErrNotFound)

		require.NoError(t, store.Delete(ctx, "uid-1"))
		_, err = store.Get(ctx, "uid-1")
		assert.ErrorIs(t, err, directory.ErrNotFound)
	})
}
