package models

import (
	"errors"
	"time"
)

// LogAction identifies the kind of transition an audit entry records
type LogAction string

const (
	LogActionEmergencyCreated   LogAction = "emergency_created"
	LogActionStatusUpdated      LogAction = "status_updated"
	LogActionDepartmentAssigned LogAction = "department_assigned"
	LogActionUnitDispatched     LogAction = "unit_dispatched"
	LogActionResponseCompleted  LogAction = "response_completed"
)

// AuditEntry is one append-only record in an emergency's history. Entries
// are never mutated or deleted; ordered by CreatedAt they form the complete
// timeline of the emergency.
type AuditEntry struct {
	ID          int64       `json:"id" bson:"id" db:"id"`
	EmergencyID string      `json:"emergency_id" bson:"emergency_id" db:"emergency_id"`
	Action      LogAction   `json:"action" bson:"action" db:"action"`
	Department  *Department `json:"department,omitempty" bson:"department,omitempty" db:"department"`
	AdminName   *string     `json:"admin_name,omitempty" bson:"admin_name,omitempty" db:"admin_name"`
	Notes       *string     `json:"notes,omitempty" bson:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at" db:"created_at"`
}

var ErrInvalidLogAction = errors.New("invalid log action")

// ValidateLogAction checks membership in the action enum
func ValidateLogAction(a LogAction) error {
	switch a {
	case LogActionEmergencyCreated, LogActionStatusUpdated, LogActionDepartmentAssigned,
		LogActionUnitDispatched, LogActionResponseCompleted:
		return nil
	default:
		return ErrInvalidLogAction
	}
}
