package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/rbac"
)

func callerSession(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeAuthRequired, "Session not found or expired.")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	sess, ok := callerSession(w, r)
	if !ok {
		return
	}

	users, err := s.auth.ListUsers(r.Context(), sess)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type inviteRequest struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
}

func (s *Server) handleInviteUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := callerSession(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "An email address is required.")
		return
	}

	invite, err := s.auth.InviteUser(r.Context(), sess, req.Name, req.Email, req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

type roleRequest struct {
	Role rbac.Role `json:"role"`
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	sess, ok := callerSession(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "A role is required.")
		return
	}

	if err := s.auth.UpdateUserRole(r.Context(), sess, chi.URLParam(r, "uid"), req.Role); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := callerSession(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "A status is required.")
		return
	}

	if err := s.auth.ToggleUserStatus(r.Context(), sess, chi.URLParam(r, "uid"), req.Status); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := callerSession(w, r)
	if !ok {
		return
	}

	if err := s.auth.DeleteUser(r.Context(), sess, chi.URLParam(r, "uid")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
