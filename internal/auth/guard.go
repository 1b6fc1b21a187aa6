package auth

import (
	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/rbac"
)

// Decision is the guard's verdict for a navigation attempt.
type Decision int

const (
	// DecisionShow renders the requested view.
	DecisionShow Decision = iota
	// DecisionRedirectToLogin sends the visitor to the login screen.
	DecisionRedirectToLogin
	// DecisionRedirectToAccessDenied sends an authenticated visitor
	// lacking the capability to the access-denied screen.
	DecisionRedirectToAccessDenied
	// DecisionShowLoading holds the view while resolution is pending.
	DecisionShowLoading
)

func (d Decision) String() string {
	switch d {
	case DecisionShow:
		return "show"
	case DecisionRedirectToLogin:
		return "redirect_to_login"
	case DecisionRedirectToAccessDenied:
		return "redirect_to_access_denied"
	case DecisionShowLoading:
		return "show_loading"
	default:
		return "unknown"
	}
}

// Decide is the view-level route guard: purely derived from the
// session and the permission matrix, no side effects. required == ""
// means the view needs authentication but no specific capability.
// This is a UX convenience only; privileged mutations re-validate
// authorization at the call site.
func Decide(sess *Session, resolving bool, required rbac.Capability) Decision {
	if resolving {
		return DecisionShowLoading
	}
	if sess == nil || sess.Profile == nil {
		return DecisionRedirectToLogin
	}
	if sess.Profile.Status == directory.StatusDisabled {
		return DecisionRedirectToLogin
	}
	if required != "" && !sess.HasCapability(required) {
		return DecisionRedirectToAccessDenied
	}
	return DecisionShow
}
