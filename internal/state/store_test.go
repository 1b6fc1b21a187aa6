package state_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/safeguardai/console/internal/backend"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/model"
	"github.com/safeguardai/console/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineStore(t *testing.T) *state.Store {
	t.Helper()
	client := backend.NewClient(config.BackendConfig{
		BaseURL:        "http://127.0.0.1:1/api",
		RequestTimeout: 200 * time.Millisecond,
	})
	store, err := state.NewStore(client, config.BackendConfig{})
	require.NoError(t, err)
	return store
}

func onlineStore(t *testing.T, handler http.Handler) *state.Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := backend.NewClient(config.BackendConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
	})
	store, err := state.NewStore(client, config.BackendConfig{PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	require.True(t, store.Probe(context.Background()))
	return store
}

// backendStub answers every endpoint with empty collections unless a
// route override is installed.
func backendStub(overrides map[string]http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if h, ok := overrides[key]; ok {
			h(w, r)
			return
		}
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		case "/workers", "/violations", "/alerts":
			w.Write([]byte(`[]`))
		case "/settings":
			w.Write([]byte(`{}`))
		case "/metrics":
			w.Write([]byte(`{"total_tracked":0,"active_violations":0,"compliance_rate":100.0,"fps":0}`))
		default:
			w.Write([]byte(`{}`))
		}
	})
	return mux
}

func TestStore_Seed(t *testing.T) {
	store := offlineStore(t)

	assert.Len(t, store.Workers(), 10)
	assert.Len(t, store.Violations(), 8)
	assert.Len(t, store.Alerts(), 3)
	assert.Len(t, store.Notifications(), 3)

	settings := store.Settings()
	assert.Equal(t, 0.75, settings["confidenceThreshold"])
	assert.Equal(t, "webcam", settings["cameraSource"])
	assert.Contains(t, settings, "zoneRules")
}

func TestStore_Probe(t *testing.T) {
	t.Run("unreachable backend stays offline", func(t *testing.T) {
		store := offlineStore(t)
		assert.False(t, store.Probe(context.Background()))
		assert.False(t, store.Online())
	})

	t.Run("replaces collections with backend snapshots", func(t *testing.T) {
		store := onlineStore(t, backendStub(map[string]http.HandlerFunc{
			"GET /workers": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]model.Worker{{ID: "W-1", Name: "Remote", Img: "http://cdn/img.png"}})
			},
			"GET /violations": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]model.Violation{{ID: "V-1", Status: model.ViolationPending}})
			},
		}))

		require.True(t, store.Online())

		workers := store.Workers()
		require.Len(t, workers, 1)
		assert.Equal(t, "W-1", workers[0].ID)
		assert.Empty(t, workers[0].Img, "remote worker images are dropped")

		violations := store.Violations()
		require.Len(t, violations, 1)
		assert.Equal(t, "V-1", violations[0].ID)
	})

	t.Run("empty remote collections keep the seed", func(t *testing.T) {
		store := onlineStore(t, backendStub(map[string]http.HandlerFunc{
			"GET /workers": func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]model.Worker{})
			},
		}))

		assert.Len(t, store.Violations(), 8, "empty violation list does not clobber the seed")
		assert.Empty(t, store.Workers(), "an explicit empty roster does replace the seed")
	})

	t.Run("remote settings merge over defaults", func(t *testing.T) {
		store := onlineStore(t, backendStub(map[string]http.HandlerFunc{
			"GET /settings": func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"cameraSource":"rtsp","detectionTargets":{"helmet":false}}`))
			},
		}))

		settings := store.Settings()
		assert.Equal(t, "rtsp", settings["cameraSource"])
		assert.Equal(t, 0.75, settings["confidenceThreshold"], "default survives")

		targets, ok := settings["detectionTargets"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, false, targets["helmet"])
		assert.Equal(t, true, targets["vest"])
	})
}

func TestStore_OfflineMutations(t *testing.T) {
	t.Run("add worker is local only", func(t *testing.T) {
		store := offlineStore(t)

		added := store.AddWorker(model.Worker{Name: "Nadia", Role: "Fitter", Site: "Dock"})

		assert.Regexp(t, `^WRK-\d{4}$`, added.ID)
		assert.Equal(t, "Compliant", added.Compliance)
		assert.Equal(t, "Just now", added.LastSeen)

		workers := store.Workers()
		require.Len(t, workers, 11)
		assert.Equal(t, added.ID, workers[0].ID, "new workers are prepended")
	})

	t.Run("delete worker", func(t *testing.T) {
		store := offlineStore(t)
		store.DeleteWorker("WRK-9402")

		for _, w := range store.Workers() {
			assert.NotEqual(t, "WRK-9402", w.ID)
		}
	})

	t.Run("update violation status", func(t *testing.T) {
		store := offlineStore(t)
		store.UpdateViolationStatus("VIO-001", model.ViolationReviewed)

		for _, v := range store.Violations() {
			if v.ID == "VIO-001" {
				assert.Equal(t, model.ViolationReviewed, v.Status)
			}
		}
	})

	t.Run("alert read and dismiss", func(t *testing.T) {
		store := offlineStore(t)

		store.MarkAlertRead(1)
		for _, a := range store.Alerts() {
			if a.ID == 1 {
				assert.True(t, a.Read)
			}
		}

		store.DismissAlert(2)
		assert.Len(t, store.Alerts(), 2)
	})

	t.Run("notifications are local only", func(t *testing.T) {
		store := offlineStore(t)

		store.MarkNotificationRead(1)
		unreadBefore := store.Stats().UnreadNotifications
		assert.Equal(t, 1, unreadBefore)

		store.MarkAllNotificationsRead()
		assert.Zero(t, store.Stats().UnreadNotifications)
	})

	t.Run("settings save and discard", func(t *testing.T) {
		store := offlineStore(t)

		store.UpdateSetting("cameraSource", "rtsp")
		store.SaveSettings()
		assert.Equal(t, "rtsp", store.Settings()["cameraSource"])

		store.UpdateSetting("cameraSource", "webcam")
		store.DiscardSettings()
		assert.Equal(t, "rtsp", store.Settings()["cameraSource"], "discard reverts to last saved")
	})

	t.Run("mutations raise toasts", func(t *testing.T) {
		store := offlineStore(t)
		store.AddWorker(model.Worker{Name: "Omar"})

		toasts := store.Toasts()
		require.NotEmpty(t, toasts)
		assert.Contains(t, toasts[0].Message, "Omar")
	})
}

func TestStore_OnlineMutations(t *testing.T) {
	t.Run("add worker fires a background backend call", func(t *testing.T) {
		var posts atomic.Int32
		store := onlineStore(t, backendStub(map[string]http.HandlerFunc{
			"POST /workers": func(w http.ResponseWriter, r *http.Request) {
				posts.Add(1)
				w.Write([]byte(`{}`))
			},
		}))

		store.AddWorker(model.Worker{Name: "Nadia"})

		assert.Eventually(t, func() bool { return posts.Load() == 1 },
			2*time.Second, 10*time.Millisecond)
	})

	t.Run("backend failure does not roll back the local change", func(t *testing.T) {
		store := onlineStore(t, backendStub(map[string]http.HandlerFunc{
			"PUT /violations/VIO-001": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		}))

		store.UpdateViolationStatus("VIO-001", model.ViolationResolved)

		time.Sleep(50 * time.Millisecond)
		for _, v := range store.Violations() {
			if v.ID == "VIO-001" {
				assert.Equal(t, model.ViolationResolved, v.Status)
			}
		}
	})
}

func TestStore_Run(t *testing.T) {
	t.Run("polls collections until cancelled", func(t *testing.T) {
		var fetches atomic.Int32
		store := onlineStore(t, backendStub(map[string]http.HandlerFunc{
			"GET /violations": func(w http.ResponseWriter, r *http.Request) {
				fetches.Add(1)
				json.NewEncoder(w).Encode([]model.Violation{{ID: "V-LIVE", Status: model.ViolationPending}})
			},
		}))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go store.Run(ctx)

		assert.Eventually(t, func() bool {
			violations := store.Violations()
			return len(violations) == 1 && violations[0].ID == "V-LIVE"
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		settled := fetches.Load()
		time.Sleep(100 * time.Millisecond)
		assert.LessOrEqual(t, fetches.Load(), settled+1, "polling stops after cancellation")
	})
}

func TestStore_Stats(t *testing.T) {
	store := offlineStore(t)
	stats := store.Stats()

	assert.Equal(t, 8, stats.TotalViolations)
	assert.Equal(t, 2, stats.PendingViolations)
	assert.Equal(t, 2, stats.UnreadNotifications)
	assert.Equal(t, 100.0, stats.ComplianceRate)
	assert.Equal(t, 100, stats.OverallScore)
	assert.Zero(t, stats.TotalWorkers, "tracked count comes from live metrics")
}

func TestStore_Export(t *testing.T) {
	t.Run("offline synthesizes CSV from memory", func(t *testing.T) {
		store := offlineStore(t)

		export := store.ExportViolations(context.Background())

		assert.Empty(t, export.URL)
		assert.True(t, strings.HasPrefix(export.Filename, "safeguard-violations-"))
		body := string(export.Data)
		assert.Contains(t, body, "ID,Date,Time,Worker,Worker ID,Violation Type,Severity,Zone,Status")
		assert.Contains(t, body, "VIO-001")
	})

	t.Run("online redirects to the backend file", func(t *testing.T) {
		store := onlineStore(t, backendStub(nil))

		export := store.ExportWorkers(context.Background())

		assert.Contains(t, export.URL, "/export/workers")
		assert.Empty(t, export.Data)
	})

	t.Run("archiver receives offline exports", func(t *testing.T) {
		store := offlineStore(t)
		archiver := &captureArchiver{url: "https://archive/export.csv"}
		store.UseArchiver(archiver)

		export := store.ExportWorkers(context.Background())

		assert.Equal(t, "https://archive/export.csv", export.ArchiveURL)
		assert.Equal(t, export.Filename, archiver.filename)
	})
}

type captureArchiver struct {
	url      string
	filename string
}

func (a *captureArchiver) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	a.filename = filename
	return a.url, nil
}

func TestStore_DetectPPE(t *testing.T) {
	t.Run("offline raises a warning toast and no result", func(t *testing.T) {
		store := offlineStore(t)

		result, err := store.DetectPPE(context.Background(), "frame.jpg", []byte{0x1})

		require.NoError(t, err)
		assert.Nil(t, result)

		toasts := store.Toasts()
		require.NotEmpty(t, toasts)
		assert.Equal(t, "warning", toasts[0].Type)
	})

	t.Run("online returns the inference result", func(t *testing.T) {
		store := onlineStore(t, backendStub(map[string]http.HandlerFunc{
			"POST /detect": func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"compliance_status":"Violation"}`))
			},
		}))

		result, err := store.DetectPPE(context.Background(), "frame.jpg", []byte{0x1})

		require.NoError(t, err)
		assert.Equal(t, "Violation", result.ComplianceStatus)
	})
}
