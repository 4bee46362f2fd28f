package models

import (
	"errors"
	"testing"
	"time"
)

func validEmergency() *Emergency {
	return &Emergency{
		EmergencyID:   "EMG-TEST0001",
		UserName:      "Asha Rao",
		MobileNumber:  "+919876543210",
		Location:      Location{Latitude: 20.2961, Longitude: 85.8245},
		EmergencyType: EmergencyTypeMedical,
		Severity:      SeverityMedium,
		Status:        EmergencyStatusPending,
		Department:    DepartmentPending,
		AssignedUnits: []UnitAssignment{},
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestEmergencyValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Emergency)
		wantErr error
	}{
		{
			name:   "valid report",
			mutate: func(e *Emergency) {},
		},
		{
			name:    "missing reporter name",
			mutate:  func(e *Emergency) { e.UserName = "" },
			wantErr: ErrMissingReporter,
		},
		{
			name:    "mobile too short",
			mutate:  func(e *Emergency) { e.MobileNumber = "12345" },
			wantErr: ErrInvalidMobile,
		},
		{
			name:    "mobile with letters",
			mutate:  func(e *Emergency) { e.MobileNumber = "+91abc6543210" },
			wantErr: ErrInvalidMobile,
		},
		{
			name:    "latitude out of range",
			mutate:  func(e *Emergency) { e.Location.Latitude = 90.0001 },
			wantErr: ErrInvalidLocation,
		},
		{
			name:    "longitude out of range",
			mutate:  func(e *Emergency) { e.Location.Longitude = -180.5 },
			wantErr: ErrInvalidLocation,
		},
		{
			name:    "unknown emergency type",
			mutate:  func(e *Emergency) { e.EmergencyType = "flood" },
			wantErr: ErrInvalidEmergencyType,
		},
		{
			name:    "unknown severity",
			mutate:  func(e *Emergency) { e.Severity = "extreme" },
			wantErr: ErrInvalidSeverity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEmergency()
			tt.mutate(e)

			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() = %v, want wrapped ErrValidation", err)
			}
		})
	}
}

func TestMobileNumberBoundaries(t *testing.T) {
	tests := []struct {
		mobile string
		valid  bool
	}{
		{"1234567890", true},         // 10 digits, no prefix
		{"+123456789012345", true},   // 15 digits with prefix
		{"123456789", false},         // 9 digits
		{"+1234567890123456", false}, // 16 digits
		{"++1234567890", false},
	}

	for _, tt := range tests {
		e := validEmergency()
		e.MobileNumber = tt.mobile
		err := e.Validate()
		if tt.valid && err != nil {
			t.Errorf("mobile %q rejected: %v", tt.mobile, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidMobile) {
			t.Errorf("mobile %q accepted, want ErrInvalidMobile", tt.mobile)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from EmergencyStatus
		to   EmergencyStatus
		want bool
	}{
		{EmergencyStatusPending, EmergencyStatusInProgress, true},
		{EmergencyStatusPending, EmergencyStatusCancelled, true},
		{EmergencyStatusPending, EmergencyStatusResolved, false},
		{EmergencyStatusInProgress, EmergencyStatusResolved, true},
		{EmergencyStatusInProgress, EmergencyStatusCancelled, true},
		{EmergencyStatusInProgress, EmergencyStatusPending, false},
		{EmergencyStatusResolved, EmergencyStatusInProgress, false},
		{EmergencyStatusResolved, EmergencyStatusCancelled, false},
		{EmergencyStatusCancelled, EmergencyStatusPending, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransitionErrorUnwrap(t *testing.T) {
	err := &TransitionError{From: EmergencyStatusResolved, To: EmergencyStatusInProgress}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatal("TransitionError should unwrap to ErrInvalidTransition")
	}
	if err.From != EmergencyStatusResolved || err.To != EmergencyStatusInProgress {
		t.Fatal("TransitionError should carry both states")
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[EmergencyStatus]bool{
		EmergencyStatusPending:    false,
		EmergencyStatusInProgress: false,
		EmergencyStatusResolved:   true,
		EmergencyStatusCancelled:  true,
	}
	for status, want := range terminal {
		if got := IsTerminal(status); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestEffectiveDepartment(t *testing.T) {
	e := validEmergency()
	if got := e.EffectiveDepartment(); got != DepartmentPending {
		t.Fatalf("no assignments: got %s, want pending", got)
	}

	e.AssignedUnits = []UnitAssignment{
		{UnitID: "AMB001", UnitType: UnitTypeAmbulance},
	}
	if got := e.EffectiveDepartment(); got != DepartmentMedical {
		t.Fatalf("single department: got %s, want medical", got)
	}

	e.AssignedUnits = append(e.AssignedUnits, UnitAssignment{UnitID: "POL001", UnitType: UnitTypePoliceCar})
	if got := e.EffectiveDepartment(); got != DepartmentMulti {
		t.Fatalf("mixed departments: got %s, want multi", got)
	}

	// two units of the same department stay single
	e.AssignedUnits = []UnitAssignment{
		{UnitID: "AMB001", UnitType: UnitTypeAmbulance},
		{UnitID: "RES001", UnitType: UnitTypeRescueTeam},
	}
	if got := e.EffectiveDepartment(); got != DepartmentMedical {
		t.Fatalf("same department twice: got %s, want medical", got)
	}
}

func TestHasUnitType(t *testing.T) {
	e := validEmergency()
	e.AssignedUnits = []UnitAssignment{{UnitID: "AMB001", UnitType: UnitTypeAmbulance}}

	if !e.HasUnitType(UnitTypeAmbulance) {
		t.Fatal("expected ambulance to be covered")
	}
	if e.HasUnitType(UnitTypeFireTruck) {
		t.Fatal("fire truck should not be covered")
	}
}

func TestCloneIsDeep(t *testing.T) {
	e := validEmergency()
	e.AssignedUnits = []UnitAssignment{{UnitID: "AMB001", UnitType: UnitTypeAmbulance}}
	rt := int64(42)
	e.ResponseTime = &rt

	clone := e.Clone()
	clone.AssignedUnits[0].UnitID = "AMB999"
	*clone.ResponseTime = 7

	if e.AssignedUnits[0].UnitID != "AMB001" {
		t.Fatal("clone shares the assigned units slice")
	}
	if *e.ResponseTime != 42 {
		t.Fatal("clone shares the response time pointer")
	}
}
