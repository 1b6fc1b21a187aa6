package rbac_test

import (
	"testing"

	"github.com/safeguardai/console/internal/rbac"
	"github.com/stretchr/testify/assert"
)

func TestHasCapability_IsTotal(t *testing.T) {
	// every known role/capability pair resolves without panicking
	for _, role := range rbac.Roles() {
		for _, cap := range rbac.Capabilities() {
			_ = rbac.HasCapability(role, cap)
		}
	}
}

func TestHasCapability_Matrix(t *testing.T) {
	tests := []struct {
		role rbac.Role
		cap  rbac.Capability
		want bool
	}{
		{rbac.RoleAdmin, rbac.UserManagement, true},
		{rbac.RoleAdmin, rbac.SystemSettings, true},
		{rbac.RoleAdmin, rbac.WorkerManagement, true},
		{rbac.RoleStaff, rbac.Dashboard, true},
		{rbac.RoleStaff, rbac.AcknowledgeViolations, true},
		{rbac.RoleStaff, rbac.WorkerManagement, false},
		{rbac.RoleStaff, rbac.UserManagement, false},
		{rbac.RoleStaff, rbac.SystemSettings, false},
		{rbac.RoleViewer, rbac.Dashboard, true},
		{rbac.RoleViewer, rbac.ViolationLogs, true},
		{rbac.RoleViewer, rbac.AcknowledgeViolations, false},
		{rbac.RoleViewer, rbac.UserManagement, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			assert.Equal(t, tt.want, rbac.HasCapability(tt.role, tt.cap))
		})
	}
}

func TestHasCapability_UnknownInputs(t *testing.T) {
	assert.False(t, rbac.HasCapability("superuser", rbac.Dashboard))
	assert.False(t, rbac.HasCapability(rbac.RoleAdmin, "timeTravel"))
	assert.False(t, rbac.HasCapability("", ""))
}

func TestValidRole(t *testing.T) {
	assert.True(t, rbac.ValidRole(rbac.RoleAdmin))
	assert.True(t, rbac.ValidRole(rbac.RoleStaff))
	assert.True(t, rbac.ValidRole(rbac.RoleViewer))
	assert.False(t, rbac.ValidRole("root"))
	assert.False(t, rbac.ValidRole(""))
}
