package rbac

// Role held by a console user. Authorization is capability-based;
// roles carry no numeric ranking.
type Role string

const (
	RoleAdmin  Role = "admin"  // full access including user management
	RoleStaff  Role = "staff"  // operational access, no management screens
	RoleViewer Role = "viewer" // read-only dashboards
)

// Capability gates a single console feature.
type Capability string

const (
	Dashboard             Capability = "dashboard"
	LiveMonitoring        Capability = "liveMonitoring"
	WorkerManagement      Capability = "workerManagement"
	FaceDatasetUpload     Capability = "faceDatasetUpload"
	ViolationLogs         Capability = "violationLogs"
	AcknowledgeViolations Capability = "acknowledgeViolations"
	AnalyticsReports      Capability = "analyticsReports"
	SystemSettings        Capability = "systemSettings"
	UserManagement        Capability = "userManagement"
)

// MaxStaffAccounts caps the number of staff records.
// Enforced at invite time and at role-change time.
const MaxStaffAccounts = 5

// matrix is the full role/capability table. Capabilities absent from a
// row are denied; it is never mutated after init.
var matrix = map[Role]map[Capability]bool{
	RoleAdmin: {
		Dashboard:             true,
		LiveMonitoring:        true,
		WorkerManagement:      true,
		FaceDatasetUpload:     true,
		ViolationLogs:         true,
		AcknowledgeViolations: true,
		AnalyticsReports:      true,
		SystemSettings:        true,
		UserManagement:        true,
	},
	RoleStaff: {
		Dashboard:             true,
		LiveMonitoring:        true,
		WorkerManagement:      false,
		FaceDatasetUpload:     false,
		ViolationLogs:         true,
		AcknowledgeViolations: true,
		AnalyticsReports:      true,
		SystemSettings:        false,
		UserManagement:        false,
	},
	RoleViewer: {
		Dashboard:             true,
		LiveMonitoring:        true,
		WorkerManagement:      false,
		FaceDatasetUpload:     false,
		ViolationLogs:         true,
		AcknowledgeViolations: false,
		AnalyticsReports:      true,
		SystemSettings:        false,
		UserManagement:        false,
	},
}

// HasCapability reports whether role grants capability. Unknown roles
// and unknown capabilities resolve to false; it never panics.
func HasCapability(role Role, capability Capability) bool {
	perms, ok := matrix[role]
	if !ok {
		return false
	}
	return perms[capability]
}

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role Role) bool {
	_, ok := matrix[role]
	return ok
}

// Roles returns the known roles.
func Roles() []Role {
	return []Role{RoleAdmin, RoleStaff, RoleViewer}
}

// Capabilities returns the closed capability set.
func Capabilities() []Capability {
	return []Capability{
		Dashboard,
		LiveMonitoring,
		WorkerManagement,
		FaceDatasetUpload,
		ViolationLogs,
		AcknowledgeViolations,
		AnalyticsReports,
		SystemSettings,
		UserManagement,
	}
}
