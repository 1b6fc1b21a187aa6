package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/identity"
	"github.com/safeguardai/console/internal/logging"
	"github.com/safeguardai/console/internal/rbac"
)

// InviteNotifier delivers the invitation notice for a freshly created
// invite record. Delivery is best-effort; a failure never fails the
// invite itself.
type InviteNotifier interface {
	NotifyInvite(ctx context.Context, name, email string, role rbac.Role) error
}

// Service resolves identity-provider sign-in events into console
// sessions and hosts the admin-only user management operations.
type Service struct {
	users    directory.Store
	sessions *redisStore
	jwt      *JWTService
	provider identity.Provider
	notifier InviteNotifier
	cfg      config.AuthConfig
}

func NewService(users directory.Store, redisClient *redis.Client, jwtSvc *JWTService, provider identity.Provider, notifier InviteNotifier, cfg config.AuthConfig) *Service {
	var sessions *redisStore
	if redisClient != nil {
		sessions = newRedisStore(redisClient)
	}
	return &Service{
		users:    users,
		sessions: sessions,
		jwt:      jwtSvc,
		provider: provider,
		notifier: notifier,
		cfg:      cfg,
	}
}

// directoryCtx bounds a single user-directory call. The timeout fails
// that call only, never the whole resolution.
func (s *Service) directoryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.DirectoryTimeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *Service) staffCap() int {
	if s.cfg.MaxStaffAccounts > 0 {
		return s.cfg.MaxStaffAccounts
	}
	return rbac.MaxStaffAccounts
}

// SignIn verifies a provider token, resolves the session and issues a
// console token for it.
func (s *Service) SignIn(ctx context.Context, rawToken string) (*Session, error) {
	ident, err := s.provider.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	sess, err := s.Resolve(ctx, ident)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(ctx, sess.Profile.UID, sess.Profile.Role)
	if err != nil {
		return nil, err
	}
	sess.Token = token

	// Session records live in redis so sign-out and disable can
	// revoke. Failure to record is non-fatal: authentication falls
	// back to the token claims.
	if s.sessions != nil {
		hash := hashToken(token)
		rec := sessionRecord{
			UID:      sess.Profile.UID,
			Email:    sess.Profile.Email,
			Role:     sess.Profile.Role,
			Degraded: sess.Degraded,
		}
		if err := s.sessions.storeSession(ctx, hash, rec, s.cfg.SessionExpiry); err != nil {
			logging.Warn("could not record session", "uid", sess.Profile.UID, "error", err)
		} else if err := s.sessions.indexSession(ctx, sess.Profile.UID, hash, s.cfg.SessionExpiry); err != nil {
			logging.Warn("could not index session", "uid", sess.Profile.UID, "error", err)
		}
	}

	return sess, nil
}

// Resolve maps a verified identity to a durable profile, applying the
// invite-claim and first-user-becomes-admin rules. The directory being
// unreachable degrades to the fallback allow-list instead of failing.
func (s *Service) Resolve(ctx context.Context, ident *identity.Identity) (*Session, error) {
	gctx, cancel := s.directoryCtx(ctx)
	rec, err := s.users.Get(gctx, ident.UID)
	cancel()

	switch {
	case err == nil:
		if rec.Status == directory.StatusDisabled {
			s.revokeSessions(ctx, ident.UID)
			return nil, ErrAccountDisabled
		}
		return &Session{Identity: *ident, Profile: rec}, nil

	case errors.Is(err, directory.ErrNotFound):
		return s.resolveNewUser(ctx, ident), nil

	default:
		// Unreachable store (timeouts included): degraded mode.
		logging.Warn("user directory unreachable, entering degraded mode",
			"uid", ident.UID, "error", err)
		return s.resolveDegraded(ident), nil
	}
}

// resolveNewUser handles a never-seen identity: claim a matching
// invite, or bootstrap the first-ever admin, or default to viewer.
// Lookup failures inside this path (timeouts included) are equivalent
// to not-found and leave the role at viewer.
func (s *Service) resolveNewUser(ctx context.Context, ident *identity.Identity) *Session {
	assignRole := rbac.RoleViewer
	assignName := fallbackName(ident)
	var invite *directory.UserRecord

	ictx, cancel := s.directoryCtx(ctx)
	found, err := s.users.FindInviteByEmail(ictx, ident.Email)
	cancel()

	switch {
	case err == nil:
		invite = found
		if rbac.ValidRole(invite.Role) {
			assignRole = invite.Role
		}
		if invite.Name != "" {
			assignName = invite.Name
		}
	case errors.Is(err, directory.ErrNotFound):
		actx, cancel := s.directoryCtx(ctx)
		adminExists, aerr := s.users.AdminExists(actx)
		cancel()
		if aerr == nil && !adminExists {
			// First user ever: bootstrap admin.
			assignRole = rbac.RoleAdmin
		}
	default:
		logging.Warn("invite lookup failed, defaulting to viewer",
			"email", ident.Email, "error", err)
	}

	rec := &directory.UserRecord{
		UID:       ident.UID,
		Name:      assignName,
		Email:     ident.Email,
		Role:      assignRole,
		Status:    directory.StatusActive,
		CreatedAt: time.Now().UTC(),
	}

	// Persistence is best-effort: the UI proceeds with the locally
	// computed profile even when the write fails.
	pctx, cancel := s.directoryCtx(ctx)
	err = s.users.Create(pctx, rec)
	cancel()
	if err != nil {
		logging.Warn("could not persist new user profile",
			"uid", ident.UID, "error", err)
	} else if invite != nil {
		dctx, cancel := s.directoryCtx(ctx)
		if derr := s.users.Delete(dctx, invite.UID); derr != nil {
			logging.Warn("could not delete claimed invite",
				"invite_uid", invite.UID, "error", derr)
		}
		cancel()
	}

	return &Session{Identity: *ident, Profile: rec}
}

// resolveDegraded builds a session without the directory: emails on
// the fallback allow-list get admin, everyone else viewer, each with
// its own limited-mode warning.
func (s *Service) resolveDegraded(ident *identity.Identity) *Session {
	role := rbac.RoleViewer
	warning := MsgLimitedModeViewer
	if s.isFallbackAdmin(ident.Email) {
		role = rbac.RoleAdmin
		warning = MsgLimitedModeAdmin
	}

	return &Session{
		Identity: *ident,
		Profile: &directory.UserRecord{
			UID:    ident.UID,
			Name:   fallbackName(ident),
			Email:  ident.Email,
			Role:   role,
			Status: directory.StatusActive,
		},
		Warning:  warning,
		Degraded: true,
	}
}

func (s *Service) isFallbackAdmin(email string) bool {
	normalized := directory.NormalizeEmail(email)
	for _, allowed := range s.cfg.FallbackAdminEmails {
		if directory.NormalizeEmail(allowed) == normalized {
			return true
		}
	}
	return false
}

// Authenticate validates a console token and re-resolves the profile
// so role changes and disables take effect without a fresh sign-in.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.jwt.ValidateToken(ctx, token)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	rec := sessionRecord{UID: claims.UID, Role: claims.Role, Degraded: true}
	if s.sessions != nil {
		stored, err := s.sessions.getSession(ctx, hashToken(token))
		switch {
		case err == nil:
			rec = *stored
		case errors.Is(err, redis.Nil):
			return nil, ErrSessionNotFound
		default:
			// Session store unreachable: fall back to token claims.
			logging.Warn("session store unreachable", "error", err)
		}
	}

	ident := identity.Identity{UID: rec.UID, Email: rec.Email}

	gctx, cancel := s.directoryCtx(ctx)
	profile, err := s.users.Get(gctx, rec.UID)
	cancel()

	switch {
	case err == nil:
		if profile.Status == directory.StatusDisabled {
			s.revokeSessions(ctx, rec.UID)
			return nil, ErrAccountDisabled
		}
		return &Session{Identity: ident, Profile: profile, Token: token}, nil
	case errors.Is(err, directory.ErrNotFound):
		// Record deleted since sign-in; treat like a revoked session.
		return nil, ErrSessionNotFound
	default:
		sess := s.resolveDegraded(&identity.Identity{UID: rec.UID, Email: rec.Email})
		if rec.Role != "" {
			sess.Profile.Role = rec.Role
			if rec.Role == rbac.RoleAdmin {
				sess.Warning = MsgLimitedModeAdmin
			}
		}
		sess.Token = token
		return sess, nil
	}
}

// SignOut revokes the session behind token. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.deleteSession(ctx, hashToken(token)); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *Service) revokeSessions(ctx context.Context, uid string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.deleteSessionsForUser(ctx, uid); err != nil {
		logging.Warn("could not revoke sessions", "uid", uid, "error", err)
	}
}

// fallbackName mirrors the provider display name, then the email
// local-part, then a generic placeholder.
func fallbackName(ident *identity.Identity) string {
	if ident.Name != "" {
		return ident.Name
	}
	if at := strings.Index(ident.Email, "@"); at > 0 {
		return ident.Email[:at]
	}
	return "User"
}
