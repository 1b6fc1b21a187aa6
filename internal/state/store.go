// Package state is the in-memory source of truth for the console's
// application data. It seeds from embedded fixtures, reconciles with
// the detection backend when one is reachable, and applies mutations
// optimistically: local state first, best-effort remote call second,
// no rollback. The next poll corrects any divergence.
package state

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safeguardai/console/internal/backend"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/logging"
	"github.com/safeguardai/console/internal/model"
)

// Archiver stores an offline-generated export and returns a download
// location for it.
type Archiver interface {
	Archive(ctx context.Context, filename string, data []byte) (string, error)
}

// Preprocessor normalizes a frame before it is uploaded for inference.
type Preprocessor interface {
	Prepare(filename string, frame []byte) (string, []byte, error)
}

const (
	defaultPollInterval = time.Second
	toastTTL            = 4 * time.Second
	remoteCallTimeout   = 10 * time.Second
)

type toastEntry struct {
	toast   model.Toast
	expires time.Time
}

// Store holds every collection behind one mutex. Pollers and detached
// mutation goroutines rely on last-write-wins per collection.
type Store struct {
	client       *backend.Client
	archiver     Archiver
	prep         Preprocessor
	pollInterval time.Duration

	mu            sync.Mutex
	online        bool
	workers       []model.Worker
	violations    []model.Violation
	alerts        []model.Alert
	notifications []model.Notification
	defaults      model.Settings
	settings      model.Settings
	savedSettings model.Settings
	metrics       model.Metrics
	toasts        []toastEntry
}

func NewStore(client *backend.Client, cfg config.BackendConfig) (*Store, error) {
	seed, err := loadSeed()
	if err != nil {
		return nil, err
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Store{
		client:        client,
		pollInterval:  interval,
		workers:       seed.Workers,
		violations:    seed.Violations,
		alerts:        seed.Alerts,
		notifications: seed.Notifications,
		defaults:      cloneSettings(seed.Settings),
		settings:      cloneSettings(seed.Settings),
		savedSettings: cloneSettings(seed.Settings),
		metrics:       model.Metrics{ComplianceRate: 100.0},
	}, nil
}

// UseArchiver enables export archival.
func (s *Store) UseArchiver(a Archiver) { s.archiver = a }

// UsePreprocessor enables frame preprocessing before detection.
func (s *Store) UsePreprocessor(p Preprocessor) { s.prep = p }

// Probe performs one liveness check. On success the store flips online
// and replaces its collections with the backend's snapshots; on failure
// it stays on local data and makes no further backend calls until a
// probe succeeds.
func (s *Store) Probe(ctx context.Context) bool {
	if err := s.client.Health(ctx); err != nil {
		logging.Info("detection backend offline, serving local data", "error", err)
		s.mu.Lock()
		s.online = false
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	s.online = true
	s.mu.Unlock()
	logging.Info("detection backend connected")

	if workers, err := s.client.Workers(ctx); err == nil && workers != nil {
		for i := range workers {
			workers[i].Img = ""
		}
		s.mu.Lock()
		s.workers = workers
		s.mu.Unlock()
	}
	if violations, err := s.client.Violations(ctx); err == nil && len(violations) > 0 {
		s.mu.Lock()
		s.violations = violations
		s.mu.Unlock()
	}
	if alerts, err := s.client.Alerts(ctx); err == nil && len(alerts) > 0 {
		s.mu.Lock()
		s.alerts = alerts
		s.mu.Unlock()
	}
	if remote, err := s.client.Settings(ctx); err == nil && len(remote) > 0 {
		s.mu.Lock()
		merged := mergeSettings(s.defaults, remote)
		s.settings = merged
		s.savedSettings = cloneSettings(merged)
		s.mu.Unlock()
	}

	return true
}

// Run polls violations, alerts, and metrics on the configured interval
// until ctx is cancelled. Fetches run concurrently; a failure keeps the
// previous snapshot and never stops the loop.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.Online() {
			continue
		}
		go s.refreshViolations(ctx)
		go s.refreshAlerts(ctx)
		go s.refreshMetrics(ctx)
	}
}

func (s *Store) refreshViolations(ctx context.Context) {
	violations, err := s.client.Violations(ctx)
	if err != nil {
		logging.Debug("violation poll failed", "error", err)
		return
	}
	if len(violations) == 0 {
		return
	}
	s.mu.Lock()
	s.violations = violations
	s.mu.Unlock()
}

func (s *Store) refreshAlerts(ctx context.Context) {
	alerts, err := s.client.Alerts(ctx)
	if err != nil {
		logging.Debug("alert poll failed", "error", err)
		return
	}
	if len(alerts) == 0 {
		return
	}
	s.mu.Lock()
	s.alerts = alerts
	s.mu.Unlock()
}

func (s *Store) refreshMetrics(ctx context.Context) {
	metrics, err := s.client.Metrics(ctx)
	if err != nil {
		logging.Debug("metrics poll failed", "error", err)
		return
	}
	s.mu.Lock()
	s.metrics = *metrics
	s.mu.Unlock()
}

func (s *Store) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *Store) Workers() []model.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

func (s *Store) Violations() []model.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Violation, len(s.violations))
	copy(out, s.violations)
	return out
}

func (s *Store) Alerts() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSettings(s.settings)
}

func (s *Store) Metrics() model.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// Toasts returns the confirmations that have not yet expired.
func (s *Store) Toasts() []model.Toast {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.toasts[:0]
	out := make([]model.Toast, 0, len(s.toasts))
	for _, entry := range s.toasts {
		if entry.expires.After(now) {
			live = append(live, entry)
			out = append(out, entry.toast)
		}
	}
	s.toasts = live
	return out
}

func (s *Store) addToast(message, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, toastEntry{
		toast:   model.Toast{ID: uuid.NewString(), Message: message, Type: kind},
		expires: time.Now().Add(toastTTL),
	})
}

// remote fires a best-effort backend call when online. The result never
// affects local state.
func (s *Store) remote(op string, call func(context.Context) error) {
	if !s.Online() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteCallTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			logging.Warn("backend call failed", "op", op, "error", err)
		}
	}()
}

// AddWorker registers a worker locally with a generated ID and pushes
// it to the backend when online.
func (s *Store) AddWorker(worker model.Worker) model.Worker {
	worker.ID = newWorkerID()
	worker.Compliance = "Compliant"
	worker.LastSeen = "Just now"
	worker.Img = ""

	s.mu.Lock()
	s.workers = append([]model.Worker{worker}, s.workers...)
	s.mu.Unlock()

	s.remote("add_worker", func(ctx context.Context) error {
		return s.client.AddWorker(ctx, worker)
	})
	s.addToast("Worker "+worker.Name+" added successfully!", "success")
	return worker
}

func (s *Store) DeleteWorker(id string) {
	s.mu.Lock()
	kept := s.workers[:0]
	for _, w := range s.workers {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.workers = kept
	s.mu.Unlock()

	s.remote("delete_worker", func(ctx context.Context) error {
		return s.client.DeleteWorker(ctx, id)
	})
	s.addToast("Worker removed", "info")
}

func (s *Store) UpdateViolationStatus(id, status string) {
	s.mu.Lock()
	for i := range s.violations {
		if s.violations[i].ID == id {
			s.violations[i].Status = status
		}
	}
	s.mu.Unlock()

	s.remote("update_violation", func(ctx context.Context) error {
		return s.client.UpdateViolation(ctx, id, map[string]any{"status": status})
	})
	s.addToast("Violation "+id+" marked as "+status, "success")
}

func (s *Store) MarkAlertRead(id int) {
	s.mu.Lock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Read = true
		}
	}
	s.mu.Unlock()

	s.remote("mark_alert_read", func(ctx context.Context) error {
		return s.client.MarkAlertRead(ctx, id)
	})
}

func (s *Store) DismissAlert(id int) {
	s.mu.Lock()
	kept := s.alerts[:0]
	for _, a := range s.alerts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	s.alerts = kept
	s.mu.Unlock()

	s.remote("dismiss_alert", func(ctx context.Context) error {
		return s.client.DismissAlert(ctx, id)
	})
	s.addToast("Alert dismissed", "info")
}

func (s *Store) MarkNotificationRead(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
		}
	}
}

func (s *Store) MarkAllNotificationsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
}

// UpdateSetting changes one key on the working copy only.
func (s *Store) UpdateSetting(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// ReplaceSettings swaps the whole working copy, merged over defaults.
func (s *Store) ReplaceSettings(settings model.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = mergeSettings(s.defaults, settings)
}

// SaveSettings promotes the working copy and persists it remotely.
func (s *Store) SaveSettings() {
	s.mu.Lock()
	s.savedSettings = cloneSettings(s.settings)
	snapshot := cloneSettings(s.settings)
	s.mu.Unlock()

	s.remote("save_settings", func(ctx context.Context) error {
		return s.client.SaveSettings(ctx, snapshot)
	})
	s.addToast("Settings saved successfully!", "success")
}

// DiscardSettings reverts the working copy to the last saved one.
func (s *Store) DiscardSettings() {
	s.mu.Lock()
	s.settings = cloneSettings(s.savedSettings)
	s.mu.Unlock()

	s.addToast("Changes discarded", "info")
}

// Stats is recomputed from current collections and metrics on every
// call; nothing here is persisted.
type Stats struct {
	TotalWorkers        int     `json:"totalWorkers"`
	ActiveWorkers       int     `json:"activeWorkers"`
	ComplianceRate      float64 `json:"complianceRate"`
	ActiveAlerts        int     `json:"activeAlerts"`
	TotalViolations     int     `json:"totalViolations"`
	PendingViolations   int     `json:"pendingViolations"`
	DetectedToday       int     `json:"detectedToday"`
	OverallScore        int     `json:"overallScore"`
	UnreadNotifications int     `json:"unreadNotifications"`
	FPS                 float64 `json:"fps"`
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := 0
	today := 0
	todayLabel := time.Now().Format("Jan 02")
	for _, v := range s.violations {
		if v.Status == model.ViolationPending {
			pending++
		}
		if strings.Contains(v.Date, todayLabel) {
			today++
		}
	}

	unread := 0
	for _, n := range s.notifications {
		if !n.Read {
			unread++
		}
	}

	return Stats{
		TotalWorkers:        s.metrics.TotalTracked,
		ActiveWorkers:       s.metrics.TotalTracked,
		ComplianceRate:      s.metrics.ComplianceRate,
		ActiveAlerts:        s.metrics.ActiveViolations,
		TotalViolations:     len(s.violations),
		PendingViolations:   pending,
		DetectedToday:       today,
		OverallScore:        int(math.Round(s.metrics.ComplianceRate)),
		UnreadNotifications: unread,
		FPS:                 s.metrics.FPS,
	}
}

// DetectPPE submits one frame for inference. Offline it only raises a
// warning toast; online it uploads and raises a toast keyed by the
// returned compliance status.
func (s *Store) DetectPPE(ctx context.Context, filename string, frame []byte) (*model.DetectionResult, error) {
	if !s.Online() {
		s.addToast("Backend is offline. Start the detection server to use PPE detection.", "warning")
		return nil, nil
	}

	s.addToast("Analyzing image for PPE compliance...", "info")

	if s.prep != nil {
		name, prepared, err := s.prep.Prepare(filename, frame)
		if err != nil {
			logging.Warn("frame preprocessing failed, uploading original", "error", err)
		} else {
			filename, frame = name, prepared
		}
	}

	result, err := s.client.Detect(ctx, filename, frame)
	if err != nil {
		return nil, err
	}

	switch result.ComplianceStatus {
	case "Compliant":
		s.addToast("All PPE detected. Worker is compliant!", "success")
	case "Violation":
		s.addToast("PPE violation detected! Alert created.", "danger")
	default:
		s.addToast("Detection result: "+result.ComplianceStatus, "info")
	}
	return result, nil
}

func newWorkerID() string {
	return fmt.Sprintf("WRK-%04d", rand.IntN(9000)+1000)
}
