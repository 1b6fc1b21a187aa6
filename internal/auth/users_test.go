package auth_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionFor(uid string, role rbac.Role) *auth.Session {
	return &auth.Session{
		Profile: &directory.UserRecord{
			UID: uid, Email: uid + "@example.com",
			Role: role, Status: directory.StatusActive,
		},
	}
}

func seedAdmin(env *testEnv) *auth.Session {
	env.dir.Seed(&directory.UserRecord{
		UID: "uid-admin", Email: "uid-admin@example.com",
		Role: rbac.RoleAdmin, Status: directory.StatusActive,
		CreatedAt: time.Now().UTC(),
	})
	return sessionFor("uid-admin", rbac.RoleAdmin)
}

func assertRule(t *testing.T, err error, rule string) {
	t.Helper()
	var bre *auth.BusinessRuleError
	require.ErrorAs(t, err, &bre)
	assert.Equal(t, rule, bre.Rule)
}

func assertAdminOnly(t *testing.T, err error, message string) {
	t.Helper()
	var ae *auth.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, message, ae.Message)
}

func TestService_ListUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		for _, role := range []rbac.Role{rbac.RoleStaff, rbac.RoleViewer} {
			_, err := env.svc.ListUsers(ctx, sessionFor("uid-x", role))
			assertAdminOnly(t, err, "Only administrators can view user list.")
		}
	})

	t.Run("admin sees every record", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		env.dir.Seed(&directory.UserRecord{UID: "uid-b", Email: "b@example.com", Role: rbac.RoleViewer})

		users, err := env.svc.ListUsers(ctx, admin)

		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestService_InviteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.InviteUser(ctx, sessionFor("uid-x", rbac.RoleStaff), "New", "new@example.com", rbac.RoleViewer)
		assertAdminOnly(t, err, "Only administrators can invite users.")
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)

		_, err := env.svc.InviteUser(ctx, admin, "New", "new@example.com", rbac.Role("root"))
		assertRule(t, err, auth.RuleInvalidRole)
	})

	t.Run("staff cap blocks sixth staff invite", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		for i := 0; i < 5; i++ {
			env.dir.Seed(&directory.UserRecord{
				UID: fmt.Sprintf("uid-staff-%d", i), Email: fmt.Sprintf("staff%d@example.com", i),
				Role: rbac.RoleStaff, Status: directory.StatusActive,
			})
		}

		_, err := env.svc.InviteUser(ctx, admin, "Extra", "extra@example.com", rbac.RoleStaff)

		assertRule(t, err, auth.RuleStaffCap)
		assert.Equal(t, "Maximum of 5 staff accounts reached.", err.Error())
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		env.dir.Seed(&directory.UserRecord{UID: "uid-b", Email: "taken@example.com", Role: rbac.RoleViewer})

		_, err := env.svc.InviteUser(ctx, admin, "New", "Taken@Example.com", rbac.RoleViewer)

		assertRule(t, err, auth.RuleDuplicateEmail)
		assert.Equal(t, "A user with this email already exists.", err.Error())
	})

	t.Run("creates invite record and notifies", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)

		invite, err := env.svc.InviteUser(ctx, admin, "New Staff", "new@example.com", rbac.RoleStaff)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(invite.UID, "invite_"))
		assert.True(t, invite.IsInvite)
		assert.Equal(t, directory.StatusActive, invite.Status)
		require.NotNil(t, env.dir.Record(invite.UID))

		require.Equal(t, 1, env.notifier.Count())
		assert.Equal(t, "new@example.com", env.notifier.Invites[0].Email)
		assert.Equal(t, rbac.RoleStaff, env.notifier.Invites[0].Role)
	})

	t.Run("notifier failure does not fail the invite", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		env.notifier.Err = fmt.Errorf("smtp down")

		invite, err := env.svc.InviteUser(ctx, admin, "New", "new@example.com", rbac.RoleViewer)

		require.NoError(t, err)
		require.NotNil(t, env.dir.Record(invite.UID))
	})
}

func TestService_UpdateUserRole(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.svc.UpdateUserRole(ctx, sessionFor("uid-x", rbac.RoleViewer), "uid-b", rbac.RoleStaff)
		assertAdminOnly(t, err, "Only administrators can update roles.")
	})

	t.Run("cannot change own role", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)

		err := env.svc.UpdateUserRole(ctx, admin, "uid-admin", rbac.RoleViewer)

		assertRule(t, err, auth.RuleSelfTarget)
		assert.Equal(t, "You cannot change your own role.", err.Error())
	})

	t.Run("promotion past the staff cap is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		for i := 0; i < 5; i++ {
			env.dir.Seed(&directory.UserRecord{
				UID: fmt.Sprintf("uid-staff-%d", i), Email: fmt.Sprintf("staff%d@example.com", i),
				Role: rbac.RoleStaff, Status: directory.StatusActive,
			})
		}
		env.dir.Seed(&directory.UserRecord{UID: "uid-v", Email: "v@example.com", Role: rbac.RoleViewer})

		err := env.svc.UpdateUserRole(ctx, admin, "uid-v", rbac.RoleStaff)

		assertRule(t, err, auth.RuleStaffCap)
	})

	t.Run("existing staff keeps its slot at the cap", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		for i := 0; i < 5; i++ {
			env.dir.Seed(&directory.UserRecord{
				UID: fmt.Sprintf("uid-staff-%d", i), Email: fmt.Sprintf("staff%d@example.com", i),
				Role: rbac.RoleStaff, Status: directory.StatusActive,
			})
		}

		err := env.svc.UpdateUserRole(ctx, admin, "uid-staff-0", rbac.RoleStaff)
		assert.NoError(t, err)
	})

	t.Run("updates the record", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		env.dir.Seed(&directory.UserRecord{UID: "uid-b", Email: "b@example.com", Role: rbac.RoleViewer})

		require.NoError(t, env.svc.UpdateUserRole(ctx, admin, "uid-b", rbac.RoleStaff))
		assert.Equal(t, rbac.RoleStaff, env.dir.Record("uid-b").Role)
	})

	t.Run("unknown uid returns not found", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)

		err := env.svc.UpdateUserRole(ctx, admin, "uid-ghost", rbac.RoleViewer)
		assert.ErrorIs(t, err, directory.ErrNotFound)
	})
}

func TestService_ToggleUserStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.svc.ToggleUserStatus(ctx, sessionFor("uid-x", rbac.RoleStaff), "uid-b", directory.StatusDisabled)
		assertAdminOnly(t, err, "Only administrators can change user status.")
	})

	t.Run("cannot disable own account", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)

		err := env.svc.ToggleUserStatus(ctx, admin, "uid-admin", directory.StatusDisabled)

		assertRule(t, err, auth.RuleSelfTarget)
		assert.Equal(t, "You cannot disable your own account.", err.Error())
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		env.dir.Seed(&directory.UserRecord{UID: "uid-b", Email: "b@example.com", Role: rbac.RoleViewer})

		err := env.svc.ToggleUserStatus(ctx, admin, "uid-b", "suspended")
		assertRule(t, err, auth.RuleInvalidStatus)
	})

	t.Run("disables and re-enables a record", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		env.dir.Seed(&directory.UserRecord{UID: "uid-b", Email: "b@example.com", Role: rbac.RoleViewer, Status: directory.StatusActive})

		require.NoError(t, env.svc.ToggleUserStatus(ctx, admin, "uid-b", directory.StatusDisabled))
		assert.Equal(t, directory.StatusDisabled, env.dir.Record("uid-b").Status)

		require.NoError(t, env.svc.ToggleUserStatus(ctx, admin, "uid-b", directory.StatusActive))
		assert.Equal(t, directory.StatusActive, env.dir.Record("uid-b").Status)
	})
}

func TestService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.svc.DeleteUser(ctx, sessionFor("uid-x", rbac.RoleViewer), "uid-b")
		assertAdminOnly(t, err, "Only administrators can delete users.")
	})

	t.Run("cannot delete own account", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)

		err := env.svc.DeleteUser(ctx, admin, "uid-admin")

		assertRule(t, err, auth.RuleSelfTarget)
		assert.Equal(t, "You cannot delete your own account.", err.Error())
	})

	t.Run("removes the record", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)
		env.dir.Seed(&directory.UserRecord{UID: "uid-b", Email: "b@example.com", Role: rbac.RoleViewer})

		require.NoError(t, env.svc.DeleteUser(ctx, admin, "uid-b"))
		assert.Nil(t, env.dir.Record("uid-b"))
	})

	t.Run("unknown uid returns not found", func(t *testing.T) {
		env := newTestEnv(t)
		admin := seedAdmin(env)

		err := env.svc.DeleteUser(ctx, admin, "uid-ghost")
		assert.ErrorIs(t, err, directory.ErrNotFound)
	})
}
