package api

import (
	"errors"
	"net/http"

	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/directory"
	"github.com/safeguardai/console/internal/identity"
	"github.com/safeguardai/console/internal/logging"
)

const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeAuthRequired     = "AUTHENTICATION_REQUIRED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeBusinessRule     = "BUSINESS_RULE_VIOLATION"
	CodeConflict         = "CONFLICT"
	CodeUpstreamError    = "UPSTREAM_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// writeDomainError maps the closed set of domain error kinds onto
// status codes. Messages pass through verbatim; screens display them.
func writeDomainError(w http.ResponseWriter, err error) {
	var authzErr *auth.AuthorizationError
	if errors.As(err, &authzErr) {
		writeError(w, http.StatusForbidden, CodePermissionDenied, authzErr.Message)
		return
	}

	var ruleErr *auth.BusinessRuleError
	if errors.As(err, &ruleErr) {
		status := http.StatusUnprocessableEntity
		code := CodeBusinessRule
		switch ruleErr.Rule {
		case auth.RuleDuplicateEmail:
			status = http.StatusConflict
			code = CodeConflict
		case auth.RuleInvalidRole, auth.RuleInvalidStatus:
			status = http.StatusBadRequest
			code = CodeValidationError
		}
		writeErrorRule(w, status, code, ruleErr.Message, ruleErr.Rule)
		return
	}

	var remoteErr *auth.RemoteUnavailableError
	if errors.As(err, &remoteErr) {
		writeError(w, http.StatusBadGateway, CodeUpstreamError, "User directory is unreachable. Try again later.")
		return
	}

	var identErr *identity.Error
	if errors.As(err, &identErr) {
		writeError(w, http.StatusUnauthorized, CodeAuthRequired, identErr.UserMessage())
		return
	}

	switch {
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, http.StatusUnauthorized, CodeAuthRequired, auth.MsgAccountDisabled)
	case errors.Is(err, auth.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, CodeAuthRequired, "Session not found or expired.")
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeResourceNotFound, "User not found.")
	default:
		logging.Error("unhandled error in request", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "Internal server error.")
	}
}
