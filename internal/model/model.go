// Package model holds the application-state entities exchanged with the
// external PPE detection backend and cached by the state store. Entities
// have no cross-references beyond IDs; JSON tags follow the backend's
// wire contract.
package model

// Worker is a tracked person on a monitored site.
type Worker struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Role       string `json:"role" yaml:"role"`
	Site       string `json:"site" yaml:"site"`
	Compliance string `json:"compliance" yaml:"compliance"`
	LastSeen   string `json:"lastSeen" yaml:"lastSeen"`
	Img        string `json:"img" yaml:"img"`
}

// Violation statuses move Pending -> Reviewed -> Resolved.
const (
	ViolationPending  = "Pending"
	ViolationReviewed = "Reviewed"
	ViolationResolved = "Resolved"
)

// Violation is a single recorded PPE infraction.
type Violation struct {
	ID       string `json:"id" yaml:"id"`
	Snapshot string `json:"snapshot" yaml:"snapshot"`
	Date     string `json:"date" yaml:"date"`
	Time     string `json:"time" yaml:"time"`
	Worker   string `json:"worker" yaml:"worker"`
	WorkerID string `json:"workerId" yaml:"workerId"`
	Type     string `json:"type" yaml:"type"`
	Severity string `json:"severity" yaml:"severity"`
	Zone     string `json:"zone" yaml:"zone"`
	Status   string `json:"status" yaml:"status"`
}

// Alert is a live notification raised by the detection pipeline.
type Alert struct {
	ID     int    `json:"id" yaml:"id"`
	Type   string `json:"type" yaml:"type"`
	Time   string `json:"time" yaml:"time"`
	Title  string `json:"title" yaml:"title"`
	Zone   string `json:"zone" yaml:"zone"`
	Worker string `json:"worker" yaml:"worker"`
	Color  string `json:"color" yaml:"color"`
	Read   bool   `json:"read" yaml:"read"`
}

// ZoneRule binds required PPE items to a named zone.
type ZoneRule struct {
	Zone string   `json:"zone" yaml:"zone"`
	PPE  []string `json:"ppe" yaml:"ppe"`
}

// DetectionTargets toggles individual PPE classes.
type DetectionTargets struct {
	Helmet bool `json:"helmet" yaml:"helmet"`
	Vest   bool `json:"vest" yaml:"vest"`
}

// Exemptions suppress detections for known-safe situations.
type Exemptions struct {
	VisitorPaths       bool `json:"visitorPaths" yaml:"visitorPaths"`
	MaintenanceWindows bool `json:"maintenanceWindows" yaml:"maintenanceWindows"`
}

// Settings is the detection pipeline configuration. It is stored as a
// free-form map on the wire so a remote snapshot can omit keys; the
// state store merges it over local defaults.
type Settings map[string]any

// Metrics is the live snapshot reported by /metrics.
type Metrics struct {
	TotalTracked     int     `json:"total_tracked"`
	ActiveViolations int     `json:"active_violations"`
	ComplianceRate   float64 `json:"compliance_rate"`
	FPS              float64 `json:"fps"`
}

// DetectionResult is the /detect response for a submitted frame.
type DetectionResult struct {
	ComplianceStatus string      `json:"compliance_status"`
	Detections       []Detection `json:"detections,omitempty"`
}

// Detection is a single detected PPE item (or absence) in a frame.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Notification is a console-local inbox entry.
type Notification struct {
	ID      int    `json:"id" yaml:"id"`
	Message string `json:"message" yaml:"message"`
	Time    string `json:"time" yaml:"time"`
	Read    bool   `json:"read" yaml:"read"`
	Type    string `json:"type" yaml:"type"`
}

// Toast is a transient user-facing confirmation.
type Toast struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Type    string `json:"type"`
}
