// Package directory is the durable user directory behind session
// resolution: real records keyed by the identity provider's uid and
// invite records keyed by a value derived from the invitee's email.
package directory

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/safeguardai/console/internal/rbac"
)

// ErrNotFound is returned for point lookups that match no record.
// Callers treat every other error as the directory being unreachable.
var ErrNotFound = errors.New("user record not found")

// User statuses. A disabled record forces sign-out on the next
// session resolution.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// UserRecord is a persisted directory entry. Invite records carry a
// derived UID and IsInvite=true until the invitee's first sign-in
// consumes them.
type UserRecord struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      rbac.Role `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	IsInvite  bool      `json:"isInvite"`
}

// Store is the directory contract: point lookup, equality queries,
// ordered listing, and record lifecycle. Implementations must return
// ErrNotFound (not a bare nil) for missing records.
type Store interface {
	// Get returns the record keyed by uid.
	Get(ctx context.Context, uid string) (*UserRecord, error)
	// FindInviteByEmail returns the invite record for email, if any.
	FindInviteByEmail(ctx context.Context, email string) (*UserRecord, error)
	// EmailExists reports whether any record, invite or real, holds email.
	EmailExists(ctx context.Context, email string) (bool, error)
	// CountByRole counts records holding role.
	CountByRole(ctx context.Context, role rbac.Role) (int, error)
	// AdminExists reports whether any record has role=admin.
	AdminExists(ctx context.Context) (bool, error)
	// List returns all records ordered by createdAt descending.
	List(ctx context.Context) ([]UserRecord, error)
	// Create inserts a new record.
	Create(ctx context.Context, rec *UserRecord) error
	// UpdateRole changes the role of the record keyed by uid.
	UpdateRole(ctx context.Context, uid string, role rbac.Role) error
	// UpdateStatus changes the status of the record keyed by uid.
	UpdateStatus(ctx context.Context, uid string, status string) error
	// Delete removes the record keyed by uid.
	Delete(ctx context.Context, uid string) error
}

// InviteUID derives the deterministic key for an invite record:
// "invite_" plus the base64 of the email with every non-alphanumeric
// stripped. Deterministic so a duplicate invite overwrites rather than
// multiplies.
func InviteUID(email string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(email))
	var b strings.Builder
	b.Grow(len(encoded))
	for _, r := range encoded {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return "invite_" + b.String()
}

// NormalizeEmail lower-cases and trims an email for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
