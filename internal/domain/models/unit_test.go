package models

import (
	"errors"
	"testing"
	"time"
)

func TestUnitTypeDepartment(t *testing.T) {
	tests := []struct {
		unitType UnitType
		want     Department
	}{
		{UnitTypePoliceCar, DepartmentPolice},
		{UnitTypeAmbulance, DepartmentMedical},
		{UnitTypeRescueTeam, DepartmentMedical},
		{UnitTypeFireTruck, DepartmentFire},
	}

	for _, tt := range tests {
		if got := UnitTypeDepartment(tt.unitType); got != tt.want {
			t.Errorf("UnitTypeDepartment(%s) = %s, want %s", tt.unitType, got, tt.want)
		}
	}
}

func TestRequiredUnitTypes(t *testing.T) {
	tests := []struct {
		emergencyType EmergencyType
		want          []UnitType
	}{
		{EmergencyTypeMedical, []UnitType{UnitTypeAmbulance}},
		{EmergencyTypePolice, []UnitType{UnitTypePoliceCar}},
		{EmergencyTypeFire, []UnitType{UnitTypeFireTruck}},
		{EmergencyTypeAccident, []UnitType{UnitTypeAmbulance, UnitTypePoliceCar}},
		{EmergencyTypeOther, nil},
	}

	for _, tt := range tests {
		got := RequiredUnitTypes(tt.emergencyType)
		if len(got) != len(tt.want) {
			t.Errorf("RequiredUnitTypes(%s) = %v, want %v", tt.emergencyType, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("RequiredUnitTypes(%s)[%d] = %s, want %s", tt.emergencyType, i, got[i], tt.want[i])
			}
		}
	}
}

func TestCanUnitTransition(t *testing.T) {
	tests := []struct {
		from UnitStatus
		to   UnitStatus
		want bool
	}{
		{UnitStatusAvailable, UnitStatusDispatched, true},
		{UnitStatusAvailable, UnitStatusOffline, true},
		{UnitStatusAvailable, UnitStatusBusy, false},
		{UnitStatusDispatched, UnitStatusBusy, true},
		{UnitStatusDispatched, UnitStatusAvailable, true},
		{UnitStatusDispatched, UnitStatusOffline, false},
		{UnitStatusBusy, UnitStatusAvailable, true},
		{UnitStatusBusy, UnitStatusOffline, true},
		{UnitStatusBusy, UnitStatusDispatched, false},
		{UnitStatusOffline, UnitStatusAvailable, true},
		{UnitStatusOffline, UnitStatusDispatched, false},
	}

	for _, tt := range tests {
		if got := CanUnitTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanUnitTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestResponseUnitValidate(t *testing.T) {
	unit := ResponseUnit{
		UnitID:          "AMB001",
		UnitName:        "City Ambulance 1",
		UnitType:        UnitTypeAmbulance,
		Department:      DepartmentMedical,
		CurrentLocation: Location{Latitude: 20.2961, Longitude: 85.8245},
		Status:          UnitStatusAvailable,
		LastUpdated:     time.Now().UTC(),
	}
	if err := unit.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	mismatch := unit
	mismatch.Department = DepartmentFire
	if err := mismatch.Validate(); !errors.Is(err, ErrUnitDepartmentMismatch) {
		t.Fatalf("Validate() = %v, want ErrUnitDepartmentMismatch", err)
	}

	badType := unit
	badType.UnitType = "helicopter"
	if err := badType.Validate(); !errors.Is(err, ErrInvalidUnitType) {
		t.Fatalf("Validate() = %v, want ErrInvalidUnitType", err)
	}
}
