package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safeguardai/console/internal/model"
	"github.com/safeguardai/console/internal/state"
)

func (s *Server) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Workers())
}

type addWorkerRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Site string `json:"site"`
}

func (s *Server) handleAddWorker(w http.ResponseWriter, r *http.Request) {
	var req addWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "A worker name is required.")
		return
	}

	added := s.state.AddWorker(model.Worker{Name: req.Name, Role: req.Role, Site: req.Site})
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	s.state.DeleteWorker(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListViolations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Violations())
}

func (s *Server) handleUpdateViolationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "A status is required.")
		return
	}
	switch req.Status {
	case model.ViolationPending, model.ViolationReviewed, model.ViolationResolved:
	default:
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid violation status.")
		return
	}

	s.state.UpdateViolationStatus(chi.URLParam(r, "id"), req.Status)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Alerts())
}

func alertID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Alert id must be numeric.")
		return 0, false
	}
	return id, true
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}
	s.state.MarkAlertRead(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}
	s.state.DismissAlert(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Settings())
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Settings must be a JSON object.")
		return
	}

	s.state.ReplaceSettings(settings)
	s.state.SaveSettings()
	writeJSON(w, http.StatusOK, s.state.Settings())
}

func (s *Server) handleDiscardSettings(w http.ResponseWriter, r *http.Request) {
	s.state.DiscardSettings()
	writeJSON(w, http.StatusOK, s.state.Settings())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Metrics())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Stats())
}

func (s *Server) handleToasts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Toasts())
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Notifications())
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Notification id must be numeric.")
		return
	}
	s.state.MarkNotificationRead(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	s.state.MarkAllNotificationsRead()
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Exports: online requests redirect to the backend-rendered file;
// offline requests stream a CSV synthesized from in-memory state.
func (s *Server) handleExportViolations(w http.ResponseWriter, r *http.Request) {
	writeExport(w, r, s.state.ExportViolations(r.Context()))
}

func (s *Server) handleExportWorkers(w http.ResponseWriter, r *http.Request) {
	writeExport(w, r, s.state.ExportWorkers(r.Context()))
}

func writeExport(w http.ResponseWriter, r *http.Request, export *state.Export) {
	if export.URL != "" {
		http.Redirect(w, r, export.URL, http.StatusFound)
		return
	}
	if export.ArchiveURL != "" {
		w.Header().Set("X-Archive-Url", export.ArchiveURL)
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(export.Data)
}

// handleDetect accepts one multipart frame, forwards it for inference,
// and returns the result. Offline it answers 200 with a null result,
// matching the store's warning-toast behavior.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxDetectUpload); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "A multipart image field is required.")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "A multipart image field is required.")
		return
	}
	defer file.Close()

	frame, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Could not read the uploaded image.")
		return
	}

	result, err := s.state.DetectPPE(r.Context(), header.Filename, frame)
	if err != nil {
		writeError(w, http.StatusBadGateway, CodeUpstreamError, "Detection backend request failed.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

const maxDetectUpload = 16 << 20
