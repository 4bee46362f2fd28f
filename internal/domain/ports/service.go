package ports

import (
	"context"

	"github.com/instanthelp/dispatch/internal/domain/models"
)

// DispatchService defines the core coordination operations for emergency
// dispatch. This is the primary port of the dispatch domain.
type DispatchService interface {
	// ReportEmergency validates and persists a new emergency, then runs
	// the assignment engine over it
	ReportEmergency(ctx context.Context, report *EmergencyReport) (*models.Emergency, error)

	// GetEmergency retrieves an emergency with its unit assignments
	GetEmergency(ctx context.Context, emergencyID string) (*models.Emergency, error)

	// ListEmergencies retrieves emergencies matching the filter, oldest first
	ListEmergencies(ctx context.Context, filter EmergencyFilter, offset, limit int) ([]*models.Emergency, error)

	// Assign runs the assignment engine for one emergency. Idempotent:
	// unit types already covered are skipped; an exhausted candidate pool
	// defers the assignment rather than failing.
	Assign(ctx context.Context, emergencyID string) (*AssignmentResult, error)

	// UpdateStatus applies a lifecycle transition requested by an operator
	// or the reporter. Resolving or cancelling an in_progress emergency
	// releases its units.
	UpdateStatus(ctx context.Context, req *StatusUpdateRequest) (*models.Emergency, error)

	// SetUnitStatus applies an operator-reported unit state change
	// (on scene, offline, back online)
	SetUnitStatus(ctx context.Context, unitID string, target models.UnitStatus) (*models.ResponseUnit, error)

	// History retrieves the ordered audit trail of an emergency
	History(ctx context.Context, emergencyID string) ([]*models.AuditEntry, error)

	// ListUnits retrieves response units for operator dashboards
	ListUnits(ctx context.Context, filter UnitFilter) ([]*models.ResponseUnit, error)

	// RedispatchPending re-runs assignment over all pending emergencies,
	// oldest first. Triggered after unit releases and by a periodic sweep.
	RedispatchPending(ctx context.Context) error

	// Seed provisions the default operator accounts and response units if
	// absent. Idempotent, run once at startup.
	Seed(ctx context.Context) error
}

// EmergencyReport carries the intake fields of a new emergency
type EmergencyReport struct {
	UserName      string               // Required: reporter name
	MobileNumber  string               // Required: reporter mobile number
	Location      models.Location      // Required: incident coordinates
	Address       *string              // Optional: free-text address
	EmergencyType models.EmergencyType // Required: medical, police, fire, accident, other
	Description   *string              // Optional: free-text description
	Severity      *models.Severity     // Optional: defaults to medium
}

// StatusUpdateRequest carries a requested lifecycle transition
type StatusUpdateRequest struct {
	EmergencyID string
	Target      models.EmergencyStatus
	ActorName   *string // operator name stamped on the audit entry
	Department  *models.Department
	Notes       *string
}

// AssignmentResult reports the outcome of one assignment engine run
type AssignmentResult struct {
	Emergency *models.Emergency
	Reserved  []models.UnitAssignment // units reserved in this run
	Deferred  []models.UnitType       // required types with no reservable unit
}
