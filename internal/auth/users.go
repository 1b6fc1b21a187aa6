package auth

import (
	"context"
	"errors"
	"time"

	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/logging"
	"github.com/safeguardai/console/internal/rbac"
)

// Admin-only user management. Each operation independently re-checks
// the caller's role before touching the directory; the route guard is
// bypassable UI gating and is never trusted here.

func requireAdmin(caller *Session, op, message string) error {
	if caller == nil || caller.Profile == nil || caller.Profile.Role != rbac.RoleAdmin {
		return adminOnly(op, message)
	}
	return nil
}

// ListUsers returns every directory record, newest first.
func (s *Service) ListUsers(ctx context.Context, caller *Session) ([]directory.UserRecord, error) {
	if err := requireAdmin(caller, "list_users", "Only administrators can view user list."); err != nil {
		return nil, err
	}

	lctx, cancel := s.directoryCtx(ctx)
	defer cancel()
	users, err := s.users.List(lctx)
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "list_users", Err: err}
	}
	return users, nil
}

// InviteUser pre-registers an email with a role. The invitee claims
// the record on first sign-in.
func (s *Service) InviteUser(ctx context.Context, caller *Session, name, email string, role rbac.Role) (*directory.UserRecord, error) {
	if err := requireAdmin(caller, "invite_user", "Only administrators can invite users."); err != nil {
		return nil, err
	}
	if !rbac.ValidRole(role) {
		return nil, invalidRoleError()
	}

	if role == rbac.RoleStaff {
		cctx, cancel := s.directoryCtx(ctx)
		count, err := s.users.CountByRole(cctx, rbac.RoleStaff)
		cancel()
		if err != nil {
			return nil, &RemoteUnavailableError{Op: "invite_user", Err: err}
		}
		if count >= s.staffCap() {
			return nil, staffCapError(s.staffCap())
		}
	}

	ectx, cancel := s.directoryCtx(ctx)
	exists, err := s.users.EmailExists(ectx, email)
	cancel()
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "invite_user", Err: err}
	}
	if exists {
		return nil, duplicateEmailError()
	}

	invite := &directory.UserRecord{
		UID:       directory.InviteUID(email),
		Name:      name,
		Email:     email,
		Role:      role,
		Status:    directory.StatusActive,
		CreatedAt: time.Now().UTC(),
		IsInvite:  true,
	}

	wctx, cancel := s.directoryCtx(ctx)
	err = s.users.Create(wctx, invite)
	cancel()
	if err != nil {
		return nil, &RemoteUnavailableError{Op: "invite_user", Err: err}
	}

	if s.notifier != nil {
		if nerr := s.notifier.NotifyInvite(ctx, name, email, role); nerr != nil {
			logging.Warn("invite notification failed", "email", email, "error", nerr)
		}
	}

	logging.Info("user invited", "email", email, "role", role, "by", caller.Profile.UID)
	return invite, nil
}

// UpdateUserRole changes the role of the record keyed by uid. The
// staff cap is re-counted excluding the target itself.
func (s *Service) UpdateUserRole(ctx context.Context, caller *Session, uid string, newRole rbac.Role) error {
	if err := requireAdmin(caller, "update_role", "Only administrators can update roles."); err != nil {
		return err
	}
	if !rbac.ValidRole(newRole) {
		return invalidRoleError()
	}
	if caller.Profile.UID == uid {
		return selfTargetError("You cannot change your own role.")
	}

	if newRole == rbac.RoleStaff {
		cctx, cancel := s.directoryCtx(ctx)
		count, err := s.users.CountByRole(cctx, rbac.RoleStaff)
		cancel()
		if err != nil {
			return &RemoteUnavailableError{Op: "update_role", Err: err}
		}

		gctx, cancel := s.directoryCtx(ctx)
		target, err := s.users.Get(gctx, uid)
		cancel()
		if err != nil && !errors.Is(err, directory.ErrNotFound) {
			return &RemoteUnavailableError{Op: "update_role", Err: err}
		}
		if target != nil && target.Role == rbac.RoleStaff {
			count--
		}
		if count >= s.staffCap() {
			return staffCapError(s.staffCap())
		}
	}

	uctx, cancel := s.directoryCtx(ctx)
	defer cancel()
	if err := s.users.UpdateRole(uctx, uid, newRole); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return err
		}
		return &RemoteUnavailableError{Op: "update_role", Err: err}
	}
	logging.Info("user role updated", "uid", uid, "role", newRole, "by", caller.Profile.UID)
	return nil
}

// ToggleUserStatus enables or disables the record keyed by uid.
// Disabling revokes the target's live sessions immediately.
func (s *Service) ToggleUserStatus(ctx context.Context, caller *Session, uid, newStatus string) error {
	if err := requireAdmin(caller, "toggle_status", "Only administrators can change user status."); err != nil {
		return err
	}
	if caller.Profile.UID == uid {
		return selfTargetError("You cannot disable your own account.")
	}
	if newStatus != directory.StatusActive && newStatus != directory.StatusDisabled {
		return &BusinessRuleError{Rule: RuleInvalidStatus, Message: "Invalid status."}
	}

	uctx, cancel := s.directoryCtx(ctx)
	defer cancel()
	if err := s.users.UpdateStatus(uctx, uid, newStatus); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return err
		}
		return &RemoteUnavailableError{Op: "toggle_status", Err: err}
	}

	if newStatus == directory.StatusDisabled {
		s.revokeSessions(ctx, uid)
	}
	logging.Info("user status updated", "uid", uid, "status", newStatus, "by", caller.Profile.UID)
	return nil
}

// DeleteUser removes the record keyed by uid and revokes its sessions.
func (s *Service) DeleteUser(ctx context.Context, caller *Session, uid string) error {
	if err := requireAdmin(caller, "delete_user", "Only administrators can delete users."); err != nil {
		return err
	}
	if caller.Profile.UID == uid {
		return selfTargetError("You cannot delete your own account.")
	}

	dctx, cancel := s.directoryCtx(ctx)
	defer cancel()
	if err := s.users.Delete(dctx, uid); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return err
		}
		return &RemoteUnavailableError{Op: "delete_user", Err: err}
	}

	s.revokeSessions(ctx, uid)
	logging.Info("user deleted", "uid", uid, "by", caller.Profile.UID)
	return nil
}
