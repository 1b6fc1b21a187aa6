package auth

import (
	"errors"
	"fmt"
)

// Fixed user-facing messages. Screens display these verbatim.
const (
	MsgAccountDisabled = "Your account has been disabled. Contact the administrator."

	MsgLimitedModeAdmin  = "Limited mode: user directory is unreachable. Using fallback admin access."
	MsgLimitedModeViewer = "Limited mode: user directory is unreachable. Contact admin."
)

// ErrAccountDisabled forces sign-out during resolution of a disabled
// record.
var ErrAccountDisabled = errors.New(MsgAccountDisabled)

// ErrSessionNotFound is returned when a token does not map to a live
// session record.
var ErrSessionNotFound = errors.New("session not found or expired")

// AuthorizationError: the caller lacks the role a privileged operation
// requires. Every admin mutation raises its own instance; the
// view-level guard is a convenience, not the enforcement point.
type AuthorizationError struct {
	Op      string
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func adminOnly(op, message string) *AuthorizationError {
	return &AuthorizationError{Op: op, Message: message}
}

// BusinessRuleError: a domain rule (staff cap, duplicate email,
// self-targeting) rejected an otherwise authorized operation.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string { return e.Message }

// Rule identifiers carried by BusinessRuleError.
const (
	RuleStaffCap       = "staff_cap"
	RuleDuplicateEmail = "duplicate_email"
	RuleSelfTarget     = "self_target"
	RuleInvalidRole    = "invalid_role"
	RuleInvalidStatus  = "invalid_status"
)

func staffCapError(cap int) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    RuleStaffCap,
		Message: fmt.Sprintf("Maximum of %d staff accounts reached.", cap),
	}
}

func duplicateEmailError() *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    RuleDuplicateEmail,
		Message: "A user with this email already exists.",
	}
}

func selfTargetError(message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: RuleSelfTarget, Message: message}
}

func invalidRoleError() *BusinessRuleError {
	return &BusinessRuleError{Rule: RuleInvalidRole, Message: "Invalid role."}
}

// RemoteUnavailableError: the user directory could not be reached. The
// resolver degrades to the fallback allow-list instead of failing
// sign-in; admin operations surface it to the caller.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("user directory unreachable during %s: %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }
