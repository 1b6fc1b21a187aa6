package auth

import (
	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/identity"
	"github.com/safeguardai/console/internal/rbac"
)

// Session is the ephemeral result of resolving a sign-in event. It is
// destroyed on sign-out; a degraded session exists only while the
// directory is unreachable and is never persisted.
type Session struct {
	Identity identity.Identity
	Profile  *directory.UserRecord
	// Warning carries the limited-mode message in degraded sessions.
	Warning string
	// Degraded marks a session resolved via the fallback allow-list.
	Degraded bool
	// Token is the console JWT issued for this session.
	Token string
}

// Role returns the session's effective role, empty when unresolved.
func (s *Session) Role() rbac.Role {
	if s == nil || s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

// IsAdmin reports whether the session holds the admin role.
func (s *Session) IsAdmin() bool {
	return s.Role() == rbac.RoleAdmin
}

// HasCapability consults the permission matrix for this session.
func (s *Session) HasCapability(capability rbac.Capability) bool {
	return rbac.HasCapability(s.Role(), capability)
}
