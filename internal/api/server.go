package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/safeguardai/console/internal/auth"
	"github.com/safeguardai/console/internal/backend"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/database"
	"github.com/safeguardai/console/internal/middleware"
	"github.com/safeguardai/console/internal/rbac"
	"github.com/safeguardai/console/internal/state"
)

type Server struct {
	auth    *auth.Service
	state   *state.Store
	backend *backend.Client
	db      *database.Database
	redis   *redis.Client
	cfg     *config.Config
}

func NewServer(authSvc *auth.Service, store *state.Store, client *backend.Client, db *database.Database, redisClient *redis.Client, cfg *config.Config) *Server {
	return &Server{
		auth:    authSvc,
		state:   store,
		backend: client,
		db:      db,
		redis:   redisClient,
		cfg:     cfg,
	}
}

// Router assembles the console's HTTP surface. The capability gates
// mirror the view guard; privileged services re-check authorization
// themselves.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestContext)
	r.Use(middleware.LoggingMiddleware)
	if s.cfg != nil {
		r.Use(middleware.NewCORSHandler(&s.cfg.CORS))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/console/health", s.handleHealth)
		r.Post("/auth/session", s.handleSignIn)

		// Everything below requires a live session.
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware())
			r.Use(middleware.UserContext)

			r.Get("/auth/session", s.handleCurrentSession)
			r.Delete("/auth/session", s.handleSignOut)

			r.Route("/users", func(r chi.Router) {
				r.Use(auth.RequireCapability(rbac.UserManagement))
				r.Get("/", s.handleListUsers)
				r.Post("/invites", s.handleInviteUser)
				r.Put("/{uid}/role", s.handleUpdateUserRole)
				r.Put("/{uid}/status", s.handleToggleUserStatus)
				r.Delete("/{uid}", s.handleDeleteUser)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCapability(rbac.Dashboard))
				r.Get("/workers", s.handleListWorkers)
				r.Get("/metrics", s.handleMetrics)
				r.Get("/stats", s.handleStats)
				r.Get("/toasts", s.handleToasts)
				r.Get("/notifications", s.handleListNotifications)
				r.Put("/notifications/{id}/read", s.handleMarkNotificationRead)
				r.Put("/notifications/read-all", s.handleMarkAllNotificationsRead)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCapability(rbac.WorkerManagement))
				r.Post("/workers", s.handleAddWorker)
				r.Delete("/workers/{id}", s.handleDeleteWorker)
			})

			r.With(auth.RequireCapability(rbac.ViolationLogs)).
				Get("/violations", s.handleListViolations)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCapability(rbac.AcknowledgeViolations))
				r.Put("/violations/{id}/status", s.handleUpdateViolationStatus)
				r.Put("/alerts/{id}/read", s.handleMarkAlertRead)
				r.Delete("/alerts/{id}", s.handleDismissAlert)
			})

			r.With(auth.RequireCapability(rbac.Dashboard)).
				Get("/alerts", s.handleListAlerts)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCapability(rbac.SystemSettings))
				r.Put("/settings", s.handleSaveSettings)
				r.Post("/settings/discard", s.handleDiscardSettings)
			})
			r.With(auth.RequireCapability(rbac.Dashboard)).
				Get("/settings", s.handleGetSettings)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCapability(rbac.AnalyticsReports))
				r.Get("/export/violations", s.handleExportViolations)
				r.Get("/export/workers", s.handleExportWorkers)
			})

			r.With(auth.RequireCapability(rbac.LiveMonitoring)).
				Post("/detect", s.handleDetect)
		})
	})

	return r
}
