package ports

import (
	"context"
	"errors"

	"github.com/instanthelp/dispatch/internal/domain/models"
)

var (
	// ErrEmergencyNotFound is returned for lookups of unknown emergency ids
	ErrEmergencyNotFound = errors.New("emergency not found")

	// ErrUnitNotFound is returned for lookups of unknown unit ids
	ErrUnitNotFound = errors.New("response unit not found")

	// ErrAdminNotFound is returned for lookups of unknown admin usernames
	ErrAdminNotFound = errors.New("admin not found")

	// ErrAlreadyExists is returned when creating a record whose id is taken
	ErrAlreadyExists = errors.New("record already exists")

	// ErrUnitUnavailable signals a lost reservation race: the unit was not
	// in "available" state at reserve time. Callers retry the next candidate.
	ErrUnitUnavailable = errors.New("unit not available")

	// ErrVersionConflict signals a lost optimistic-update race on an
	// emergency record. Callers reload and reconcile.
	ErrVersionConflict = errors.New("emergency version conflict")

	// ErrUnitStateConflict signals a unit status change whose precondition
	// state no longer holds.
	ErrUnitStateConflict = errors.New("unit state conflict")
)

// EmergencyFilter narrows emergency list queries
type EmergencyFilter struct {
	Status     *models.EmergencyStatus
	Department *models.Department
}

// EmergencyRepository defines durable access to emergency records.
// This is a port owned by the domain layer.
type EmergencyRepository interface {
	// Create persists a new emergency record
	Create(ctx context.Context, emergency *models.Emergency) error

	// GetByEmergencyID retrieves an emergency by its caller-visible id
	GetByEmergencyID(ctx context.Context, emergencyID string) (*models.Emergency, error)

	// List retrieves emergencies matching the filter, oldest first
	List(ctx context.Context, filter EmergencyFilter, offset, limit int) ([]*models.Emergency, error)

	// Update stores the record if the persisted version still matches
	// emergency.Version, then increments it. Returns ErrVersionConflict
	// when another writer got there first.
	Update(ctx context.Context, emergency *models.Emergency) error

	// Remove deletes a record that was never committed. Used only to roll
	// back a create whose audit append failed; committed emergencies are
	// never physically deleted.
	Remove(ctx context.Context, emergencyID string) error
}

// UnitFilter narrows response unit list queries
type UnitFilter struct {
	Department *models.Department
	UnitType   *models.UnitType
	Status     *models.UnitStatus
}

// UnitRepository defines access to the response unit registry. Reserve is
// the engine's sole cross-emergency mutual exclusion point and must be
// linearizable per unit.
type UnitRepository interface {
	// Create provisions a new unit
	Create(ctx context.Context, unit *models.ResponseUnit) error

	// GetByUnitID retrieves a unit by its id
	GetByUnitID(ctx context.Context, unitID string) (*models.ResponseUnit, error)

	// List retrieves units matching the filter, unit id ascending
	List(ctx context.Context, filter UnitFilter) ([]*models.ResponseUnit, error)

	// ListAvailable retrieves units in "available" state for a department,
	// optionally narrowed to a unit type, unit id ascending
	ListAvailable(ctx context.Context, department *models.Department, unitType *models.UnitType) ([]*models.ResponseUnit, error)

	// Reserve atomically moves a unit available->dispatched and sets its
	// emergency back-reference. Returns ErrUnitUnavailable if the unit is
	// not currently available.
	Reserve(ctx context.Context, unitID, emergencyID string) error

	// Release moves a dispatched or busy unit back to available and clears
	// the back-reference
	Release(ctx context.Context, unitID string) error

	// SetStatus applies an operator state change (on scene, offline, back
	// online) guarded by the expected prior state
	SetStatus(ctx context.Context, unitID string, from, to models.UnitStatus) error
}

// AuditRepository defines the append-only emergency history log
type AuditRepository interface {
	// Append inserts one audit entry
	Append(ctx context.Context, entry *models.AuditEntry) error

	// History retrieves all entries for an emergency, creation time ascending
	History(ctx context.Context, emergencyID string) ([]*models.AuditEntry, error)
}

// AdminRepository defines access to operator accounts
type AdminRepository interface {
	// Create provisions a new admin account
	Create(ctx context.Context, admin *models.Admin) error

	// GetByUsername retrieves an admin by username
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// CacheRepository defines the optional emergency read cache
type CacheRepository interface {
	// Get retrieves a cached emergency snapshot
	Get(ctx context.Context, emergencyID string) (*models.Emergency, error)

	// Set stores an emergency snapshot with a TTL
	Set(ctx context.Context, emergencyID string, emergency *models.Emergency, ttlSeconds int) error

	// Delete invalidates a cached snapshot
	Delete(ctx context.Context, emergencyID string) error
}
