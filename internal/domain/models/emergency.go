package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// EmergencyType classifies an incoming emergency report
type EmergencyType string

const (
	EmergencyTypeMedical  EmergencyType = "medical"
	EmergencyTypePolice   EmergencyType = "police"
	EmergencyTypeFire     EmergencyType = "fire"
	EmergencyTypeAccident EmergencyType = "accident"
	EmergencyTypeOther    EmergencyType = "other"
)

// Severity represents the reported severity of an emergency
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EmergencyStatus represents the lifecycle state of an emergency
type EmergencyStatus string

const (
	EmergencyStatusPending    EmergencyStatus = "pending"
	EmergencyStatusInProgress EmergencyStatus = "in_progress"
	EmergencyStatusResolved   EmergencyStatus = "resolved"
	EmergencyStatusCancelled  EmergencyStatus = "cancelled"
)

// Department identifies the responding department of an emergency or unit.
// DepartmentPending marks an emergency that has no units assigned yet,
// DepartmentMulti marks one served by units from more than one department.
type Department string

const (
	DepartmentPolice     Department = "police"
	DepartmentMedical    Department = "medical"
	DepartmentFire       Department = "fire"
	DepartmentMulti      Department = "multi"
	DepartmentPending    Department = "pending"
	DepartmentSuperadmin Department = "superadmin" // admin accounts only
)

// UnitAssignment records one unit attached to an emergency
type UnitAssignment struct {
	UnitType   UnitType  `json:"unit_type" bson:"unit_type" db:"unit_type"`
	UnitID     string    `json:"unit_id" bson:"unit_id" db:"unit_id"`
	AssignedAt time.Time `json:"assigned_at" bson:"assigned_at" db:"assigned_at"`
}

// Emergency represents a citizen-reported emergency and its dispatch state
type Emergency struct {
	ID            int64            `json:"id" bson:"id" db:"id"`
	EmergencyID   string           `json:"emergency_id" bson:"emergency_id" db:"emergency_id"`
	UserName      string           `json:"user_name" bson:"user_name" db:"user_name"`
	MobileNumber  string           `json:"mobile_number" bson:"mobile_number" db:"mobile_number"`
	Location      Location         `json:"location" bson:"location"`
	Address       *string          `json:"address,omitempty" bson:"address,omitempty" db:"address"`
	EmergencyType EmergencyType    `json:"emergency_type" bson:"emergency_type" db:"emergency_type"`
	Description   *string          `json:"description,omitempty" bson:"description,omitempty" db:"description"`
	Severity      Severity         `json:"severity" bson:"severity" db:"severity"`
	Status        EmergencyStatus  `json:"status" bson:"status" db:"status"`
	Department    Department       `json:"department" bson:"department" db:"department"`
	AssignedUnits []UnitAssignment `json:"assigned_units" bson:"assigned_units"`
	ResponseTime  *int64           `json:"response_time,omitempty" bson:"response_time,omitempty" db:"response_time"`
	Version       int64            `json:"version" bson:"version" db:"version"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

var (
	ErrValidation           = errors.New("validation failed")
	ErrMissingReporter      = errors.New("reporter name is required")
	ErrInvalidMobile        = errors.New("invalid mobile number")
	ErrInvalidLocation      = errors.New("location coordinates out of range")
	ErrInvalidEmergencyType = errors.New("invalid emergency type")
	ErrInvalidSeverity      = errors.New("invalid severity")
	ErrInvalidStatus        = errors.New("invalid emergency status")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

var mobileRegex = regexp.MustCompile(`^\+?\d{10,15}$`)

// TransitionError reports a rejected status change with both states so
// callers can reconcile against the current record.
type TransitionError struct {
	From EmergencyStatus
	To   EmergencyStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Validate checks the report fields required at intake. Severity and status
// are expected to have been defaulted before calling.
func (e *Emergency) Validate() error {
	if e.UserName == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingReporter)
	}
	if !mobileRegex.MatchString(e.MobileNumber) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidMobile)
	}
	if err := e.Location.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := ValidateEmergencyType(e.EmergencyType); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := ValidateSeverity(e.Severity); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// ValidateEmergencyType checks membership in the emergency type enum
func ValidateEmergencyType(t EmergencyType) error {
	switch t {
	case EmergencyTypeMedical, EmergencyTypePolice, EmergencyTypeFire, EmergencyTypeAccident, EmergencyTypeOther:
		return nil
	default:
		return ErrInvalidEmergencyType
	}
}

// ValidateSeverity checks membership in the severity enum
func ValidateSeverity(s Severity) error {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return nil
	default:
		return ErrInvalidSeverity
	}
}

// ValidateEmergencyStatus checks membership in the emergency status enum
func ValidateEmergencyStatus(s EmergencyStatus) error {
	switch s {
	case EmergencyStatusPending, EmergencyStatusInProgress, EmergencyStatusResolved, EmergencyStatusCancelled:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// CanTransition reports whether an emergency may move from one status to
// another. Transitions are monotonic: pending may start or cancel, in_progress
// may resolve or cancel, resolved and cancelled are terminal.
func CanTransition(from, to EmergencyStatus) bool {
	switch from {
	case EmergencyStatusPending:
		return to == EmergencyStatusInProgress || to == EmergencyStatusCancelled
	case EmergencyStatusInProgress:
		return to == EmergencyStatusResolved || to == EmergencyStatusCancelled
	default:
		return false
	}
}

// IsTerminal reports whether a status permits no further transitions
func IsTerminal(s EmergencyStatus) bool {
	return s == EmergencyStatusResolved || s == EmergencyStatusCancelled
}

// HasUnitType reports whether the emergency already holds an assignment of
// the given unit type. Used to keep re-dispatch idempotent.
func (e *Emergency) HasUnitType(t UnitType) bool {
	for _, a := range e.AssignedUnits {
		if a.UnitType == t {
			return true
		}
	}
	return false
}

// EffectiveDepartment derives the department field from the current
// assignments: pending with none, the single owning department with one,
// multi as soon as units from different departments are attached.
func (e *Emergency) EffectiveDepartment() Department {
	var dept Department
	for _, a := range e.AssignedUnits {
		d := UnitTypeDepartment(a.UnitType)
		if dept == "" {
			dept = d
			continue
		}
		if dept != d {
			return DepartmentMulti
		}
	}
	if dept == "" {
		return DepartmentPending
	}
	return dept
}

// Clone returns a deep copy, used for optimistic update/rollback cycles
func (e *Emergency) Clone() *Emergency {
	c := *e
	c.AssignedUnits = make([]UnitAssignment, len(e.AssignedUnits))
	copy(c.AssignedUnits, e.AssignedUnits)
	if e.Address != nil {
		addr := *e.Address
		c.Address = &addr
	}
	if e.Description != nil {
		desc := *e.Description
		c.Description = &desc
	}
	if e.ResponseTime != nil {
		rt := *e.ResponseTime
		c.ResponseTime = &rt
	}
	if e.Location.Accuracy != nil {
		acc := *e.Location.Accuracy
		c.Location.Accuracy = &acc
	}
	return &c
}
