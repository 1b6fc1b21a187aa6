package state

import (
	"bytes"
	"context"
	"encoding/csv"
	"time"

	"github.com/safeguardai/console/internal/logging"
)

// Export is either a redirect to a backend-rendered file (URL set) or
// a locally synthesized CSV (Filename and Data set). ArchiveURL points
// at an archived copy of a local export when an archiver is configured.
type Export struct {
	URL        string `json:"url,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Data       []byte `json:"-"`
	ArchiveURL string `json:"archiveUrl,omitempty"`
}

// ExportViolations redirects to the backend export when online and
// synthesizes a CSV from current in-memory state when offline.
func (s *Store) ExportViolations(ctx context.Context) *Export {
	defer s.addToast("Violations exported as CSV!", "success")

	if s.Online() {
		return &Export{URL: s.client.ExportViolationsURL()}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"ID", "Date", "Time", "Worker", "Worker ID", "Violation Type", "Severity", "Zone", "Status"})
	for _, v := range s.Violations() {
		w.Write([]string{v.ID, v.Date, v.Time, v.Worker, v.WorkerID, v.Type, v.Severity, v.Zone, v.Status})
	}
	w.Flush()

	export := &Export{
		Filename: "safeguard-violations-" + time.Now().Format("2006-01-02") + ".csv",
		Data:     buf.Bytes(),
	}
	s.archiveExport(ctx, export)
	return export
}

// ExportWorkers mirrors ExportViolations for the worker roster.
func (s *Store) ExportWorkers(ctx context.Context) *Export {
	defer s.addToast("Workers exported as CSV!", "success")

	if s.Online() {
		return &Export{URL: s.client.ExportWorkersURL()}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"ID", "Name", "Role", "Site", "Compliance", "Last Seen"})
	for _, worker := range s.Workers() {
		w.Write([]string{worker.ID, worker.Name, worker.Role, worker.Site, worker.Compliance, worker.LastSeen})
	}
	w.Flush()

	export := &Export{
		Filename: "safeguard-workers-" + time.Now().Format("2006-01-02") + ".csv",
		Data:     buf.Bytes(),
	}
	s.archiveExport(ctx, export)
	return export
}

// archiveExport is best-effort; failures leave the export local-only.
func (s *Store) archiveExport(ctx context.Context, export *Export) {
	if s.archiver == nil {
		return
	}
	url, err := s.archiver.Archive(ctx, export.Filename, export.Data)
	if err != nil {
		logging.Warn("export archival failed", "filename", export.Filename, "error", err)
		return
	}
	export.ArchiveURL = url
}
