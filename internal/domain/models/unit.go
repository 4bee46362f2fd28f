package models

import (
	"errors"
	"time"
)

// UnitType identifies the kind of physical response unit
type UnitType string

const (
	UnitTypePoliceCar  UnitType = "police_car"
	UnitTypeAmbulance  UnitType = "ambulance"
	UnitTypeFireTruck  UnitType = "fire_truck"
	UnitTypeRescueTeam UnitType = "rescue_team"
)

// UnitStatus represents the operational state of a response unit.
// offline is an administrative state and always blocks selection.
type UnitStatus string

const (
	UnitStatusAvailable  UnitStatus = "available"
	UnitStatusDispatched UnitStatus = "dispatched"
	UnitStatusBusy       UnitStatus = "busy"
	UnitStatusOffline    UnitStatus = "offline"
)

// ResponseUnit represents a dispatchable physical unit (ambulance, police
// car, fire truck, rescue team). AssignedEmergency is the registry's
// back-reference to the single non-terminal emergency holding this unit.
type ResponseUnit struct {
	ID                int64      `json:"id" bson:"id" db:"id"`
	UnitID            string     `json:"unit_id" bson:"unit_id" db:"unit_id"`
	UnitName          string     `json:"unit_name" bson:"unit_name" db:"unit_name"`
	UnitType          UnitType   `json:"unit_type" bson:"unit_type" db:"unit_type"`
	Department        Department `json:"department" bson:"department" db:"department"`
	CurrentLocation   Location   `json:"current_location" bson:"current_location"`
	Status            UnitStatus `json:"status" bson:"status" db:"status"`
	AssignedEmergency *string    `json:"assigned_emergency,omitempty" bson:"assigned_emergency,omitempty" db:"assigned_emergency"`
	LastUpdated       time.Time  `json:"last_updated" bson:"last_updated" db:"last_updated"`
}

var (
	ErrInvalidUnitType        = errors.New("invalid unit type")
	ErrInvalidUnitStatus      = errors.New("invalid unit status")
	ErrUnitDepartmentMismatch = errors.New("unit department does not match unit type")
)

// ValidateUnitType checks membership in the unit type enum
func ValidateUnitType(t UnitType) error {
	switch t {
	case UnitTypePoliceCar, UnitTypeAmbulance, UnitTypeFireTruck, UnitTypeRescueTeam:
		return nil
	default:
		return ErrInvalidUnitType
	}
}

// ValidateUnitStatus checks membership in the unit status enum
func ValidateUnitStatus(s UnitStatus) error {
	switch s {
	case UnitStatusAvailable, UnitStatusDispatched, UnitStatusBusy, UnitStatusOffline:
		return nil
	default:
		return ErrInvalidUnitStatus
	}
}

// UnitTypeDepartment returns the department that owns units of the given type
func UnitTypeDepartment(t UnitType) Department {
	switch t {
	case UnitTypePoliceCar:
		return DepartmentPolice
	case UnitTypeAmbulance, UnitTypeRescueTeam:
		return DepartmentMedical
	case UnitTypeFireTruck:
		return DepartmentFire
	default:
		return DepartmentPending
	}
}

// Validate checks a unit record at provisioning time
func (u *ResponseUnit) Validate() error {
	if err := ValidateUnitType(u.UnitType); err != nil {
		return err
	}
	if err := ValidateUnitStatus(u.Status); err != nil {
		return err
	}
	if UnitTypeDepartment(u.UnitType) != u.Department {
		return ErrUnitDepartmentMismatch
	}
	return nil
}

// RequiredUnitTypes maps an emergency type to the unit types that must be
// dispatched. Accidents need both an ambulance and a police car. "other"
// returns an empty slice: the engine falls back to the nearest unit of any
// type on a best-effort basis.
func RequiredUnitTypes(t EmergencyType) []UnitType {
	switch t {
	case EmergencyTypeMedical:
		return []UnitType{UnitTypeAmbulance}
	case EmergencyTypePolice:
		return []UnitType{UnitTypePoliceCar}
	case EmergencyTypeFire:
		return []UnitType{UnitTypeFireTruck}
	case EmergencyTypeAccident:
		return []UnitType{UnitTypeAmbulance, UnitTypePoliceCar}
	default:
		return nil
	}
}

// CanUnitTransition reports whether a unit may move between the given
// states. reserve and release cover available<->dispatched/busy; busy is the
// operator-reported "on scene" refinement of dispatched; offline is reachable
// from available or busy and returns only to available.
func CanUnitTransition(from, to UnitStatus) bool {
	switch from {
	case UnitStatusAvailable:
		return to == UnitStatusDispatched || to == UnitStatusOffline
	case UnitStatusDispatched:
		return to == UnitStatusBusy || to == UnitStatusAvailable
	case UnitStatusBusy:
		return to == UnitStatusAvailable || to == UnitStatusOffline
	case UnitStatusOffline:
		return to == UnitStatusAvailable
	default:
		return false
	}
}
