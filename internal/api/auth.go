package api

import (
	"encoding/json"
	"net/http"

	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/directory"
)

type signInRequest struct {
	// Token is the identity provider's ID token from the login popup.
	Token string `json:"token"`
}

type sessionResponse struct {
	Token    string                `json:"token,omitempty"`
	Profile  *directory.UserRecord `json:"profile"`
	Warning  string                `json:"warning,omitempty"`
	Degraded bool                  `json:"degraded"`
}

func sessionPayload(sess *auth.Session, includeToken bool) sessionResponse {
	resp := sessionResponse{
		Profile:  sess.Profile,
		Warning:  sess.Warning,
		Degraded: sess.Degraded,
	}
	if includeToken {
		resp.Token = sess.Token
	}
	return resp
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "A provider token is required.")
		return
	}

	sess, err := s.auth.SignIn(r.Context(), req.Token)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionPayload(sess, true))
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeAuthRequired, "Session not found or expired.")
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess, false))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeAuthRequired, "Session not found or expired.")
		return
	}
	if err := s.auth.SignOut(r.Context(), sess.Token); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
