package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/instanthelp/dispatch/internal/adapters/memory"
	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (ports.DispatchService, *memory.Adapter) {
	t.Helper()
	adapter := memory.NewAdapter()
	svc := NewDispatchService(
		adapter.EmergencyRepository(),
		adapter.UnitRepository(),
		adapter.AuditRepository(),
		adapter.AdminRepository(),
		nil,
		Options{},
	)
	return svc, adapter
}

func addUnit(t *testing.T, adapter *memory.Adapter, unitID string, unitType models.UnitType, lat, lon float64) {
	t.Helper()
	unit := &models.ResponseUnit{
		UnitID:          unitID,
		UnitName:        unitID,
		UnitType:        unitType,
		Department:      models.UnitTypeDepartment(unitType),
		CurrentLocation: models.Location{Latitude: lat, Longitude: lon},
		Status:          models.UnitStatusAvailable,
		LastUpdated:     time.Now().UTC(),
	}
	require.NoError(t, adapter.UnitRepository().Create(context.Background(), unit))
}

func report(t *testing.T, svc ports.DispatchService, emergencyType models.EmergencyType, lat, lon float64) *models.Emergency {
	t.Helper()
	emergency, err := svc.ReportEmergency(context.Background(), &ports.EmergencyReport{
		UserName:      "Asha Rao",
		MobileNumber:  "+919876543210",
		Location:      models.Location{Latitude: lat, Longitude: lon},
		EmergencyType: emergencyType,
	})
	require.NoError(t, err)
	return emergency
}

func TestReportAssignsNearestAmbulance(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	// AMB-NEAR is ~2 km from the incident, AMB-FAR ~10 km
	addUnit(t, adapter, "AMB-NEAR", models.UnitTypeAmbulance, 20.318, 85.82)
	addUnit(t, adapter, "AMB-FAR", models.UnitTypeAmbulance, 20.39, 85.82)

	emergency := report(t, svc, models.EmergencyTypeMedical, 20.30, 85.82)

	assert.Equal(t, models.EmergencyStatusInProgress, emergency.Status)
	assert.Equal(t, models.DepartmentMedical, emergency.Department)
	require.Len(t, emergency.AssignedUnits, 1)
	assert.Equal(t, "AMB-NEAR", emergency.AssignedUnits[0].UnitID)
	require.NotNil(t, emergency.ResponseTime)
	assert.GreaterOrEqual(t, *emergency.ResponseTime, int64(0))

	// the reserved unit carries the back-reference; the far one stays free
	near, err := adapter.UnitRepository().GetByUnitID(ctx, "AMB-NEAR")
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusDispatched, near.Status)
	require.NotNil(t, near.AssignedEmergency)
	assert.Equal(t, emergency.EmergencyID, *near.AssignedEmergency)

	far, err := adapter.UnitRepository().GetByUnitID(ctx, "AMB-FAR")
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusAvailable, far.Status)

	// audit trail, in that order: created, department assigned, unit dispatched
	history, err := svc.History(ctx, emergency.EmergencyID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.LogActionEmergencyCreated, history[0].Action)
	assert.Equal(t, models.LogActionDepartmentAssigned, history[1].Action)
	require.NotNil(t, history[1].Department)
	assert.Equal(t, models.DepartmentMedical, *history[1].Department)
	assert.Equal(t, models.LogActionUnitDispatched, history[2].Action)
}

func TestReportDeferredWithoutUnits(t *testing.T) {
	svc, _ := newTestService(t)

	emergency := report(t, svc, models.EmergencyTypeFire, 20.30, 85.82)

	assert.Equal(t, models.EmergencyStatusPending, emergency.Status)
	assert.Equal(t, models.DepartmentPending, emergency.Department)
	assert.Empty(t, emergency.AssignedUnits)
	assert.Nil(t, emergency.ResponseTime)
}

func TestAccidentDispatchesBothDepartments(t *testing.T) {
	svc, adapter := newTestService(t)
	addUnit(t, adapter, "AMB001", models.UnitTypeAmbulance, 20.31, 85.82)
	addUnit(t, adapter, "POL001", models.UnitTypePoliceCar, 20.32, 85.82)

	emergency := report(t, svc, models.EmergencyTypeAccident, 20.30, 85.82)

	assert.Equal(t, models.EmergencyStatusInProgress, emergency.Status)
	assert.Equal(t, models.DepartmentMulti, emergency.Department)
	require.Len(t, emergency.AssignedUnits, 2)
}

func TestIdempotentRedispatch(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	// only the ambulance half of an accident is available
	addUnit(t, adapter, "AMB001", models.UnitTypeAmbulance, 20.31, 85.82)

	emergency := report(t, svc, models.EmergencyTypeAccident, 20.30, 85.82)
	assert.Equal(t, models.EmergencyStatusInProgress, emergency.Status)
	assert.Equal(t, models.DepartmentMedical, emergency.Department)
	require.Len(t, emergency.AssignedUnits, 1)

	// re-running without new capacity defers the police car again
	result, err := svc.Assign(ctx, emergency.EmergencyID)
	require.NoError(t, err)
	assert.Empty(t, result.Reserved)
	assert.Equal(t, []models.UnitType{models.UnitTypePoliceCar}, result.Deferred)
	require.Len(t, result.Emergency.AssignedUnits, 1)

	// a police car appears; the next run adds it without a second ambulance
	addUnit(t, adapter, "POL001", models.UnitTypePoliceCar, 20.32, 85.82)
	result, err = svc.Assign(ctx, emergency.EmergencyID)
	require.NoError(t, err)
	require.Len(t, result.Reserved, 1)
	assert.Equal(t, "POL001", result.Reserved[0].UnitID)
	require.Len(t, result.Emergency.AssignedUnits, 2)
	assert.Equal(t, models.DepartmentMulti, result.Emergency.Department)
}

func TestCancelPendingEmergency(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	emergency := report(t, svc, models.EmergencyTypePolice, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusPending, emergency.Status)

	cancelled, err := svc.UpdateStatus(ctx, &ports.StatusUpdateRequest{
		EmergencyID: emergency.EmergencyID,
		Target:      models.EmergencyStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.ResponseTime)

	// terminal states accept no further transitions
	_, err = svc.UpdateStatus(ctx, &ports.StatusUpdateRequest{
		EmergencyID: emergency.EmergencyID,
		Target:      models.EmergencyStatusInProgress,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	var transitionErr *models.TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, models.EmergencyStatusCancelled, transitionErr.From)
	assert.Equal(t, models.EmergencyStatusInProgress, transitionErr.To)
}

func TestResolveReleasesUnits(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	addUnit(t, adapter, "AMB001", models.UnitTypeAmbulance, 20.31, 85.82)
	addUnit(t, adapter, "POL001", models.UnitTypePoliceCar, 20.32, 85.82)

	emergency := report(t, svc, models.EmergencyTypeAccident, 20.30, 85.82)
	require.Len(t, emergency.AssignedUnits, 2)
	firstResponse := *emergency.ResponseTime

	time.Sleep(10 * time.Millisecond)

	actor := "police_admin"
	resolved, err := svc.UpdateStatus(ctx, &ports.StatusUpdateRequest{
		EmergencyID: emergency.EmergencyID,
		Target:      models.EmergencyStatusResolved,
		ActorName:   &actor,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusResolved, resolved.Status)

	// response_time is recomputed as total elapsed creation to resolution
	require.NotNil(t, resolved.ResponseTime)
	assert.GreaterOrEqual(t, *resolved.ResponseTime, firstResponse)

	// the record keeps its assignments for the historical trail
	require.Len(t, resolved.AssignedUnits, 2)

	// both units return to the available pool with the back-reference cleared
	for _, unitID := range []string{"AMB001", "POL001"} {
		unit, err := adapter.UnitRepository().GetByUnitID(ctx, unitID)
		require.NoError(t, err)
		assert.Equal(t, models.UnitStatusAvailable, unit.Status, unitID)
		assert.Nil(t, unit.AssignedEmergency, unitID)
	}

	// resolution is logged as response_completed with the actor
	history, err := svc.History(ctx, emergency.EmergencyID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, models.LogActionResponseCompleted, last.Action)
	require.NotNil(t, last.AdminName)
	assert.Equal(t, "police_admin", *last.AdminName)
}

func TestReleaseFeedsPendingEmergency(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	addUnit(t, adapter, "AMB001", models.UnitTypeAmbulance, 20.31, 85.82)

	first := report(t, svc, models.EmergencyTypeMedical, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusInProgress, first.Status)

	second := report(t, svc, models.EmergencyTypeMedical, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusPending, second.Status)

	// resolving the first hands the freed ambulance to the second
	_, err := svc.UpdateStatus(ctx, &ports.StatusUpdateRequest{
		EmergencyID: first.EmergencyID,
		Target:      models.EmergencyStatusResolved,
	})
	require.NoError(t, err)

	reloaded, err := svc.GetEmergency(ctx, second.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusInProgress, reloaded.Status)
	require.Len(t, reloaded.AssignedUnits, 1)
	assert.Equal(t, "AMB001", reloaded.AssignedUnits[0].UnitID)
}

func TestReleaseFeedsDeferredDepartment(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	addUnit(t, adapter, "AMB001", models.UnitTypeAmbulance, 20.31, 85.82)
	addUnit(t, adapter, "POL001", models.UnitTypePoliceCar, 20.31, 85.82)

	crime := report(t, svc, models.EmergencyTypePolice, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusInProgress, crime.Status)

	// the accident gets the ambulance but the only police car is taken
	accident := report(t, svc, models.EmergencyTypeAccident, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusInProgress, accident.Status)
	require.Len(t, accident.AssignedUnits, 1)
	assert.Equal(t, models.UnitTypeAmbulance, accident.AssignedUnits[0].UnitType)

	// resolving the crime frees POL001 and completes the accident's coverage
	_, err := svc.UpdateStatus(ctx, &ports.StatusUpdateRequest{
		EmergencyID: crime.EmergencyID,
		Target:      models.EmergencyStatusResolved,
	})
	require.NoError(t, err)

	reloaded, err := svc.GetEmergency(ctx, accident.EmergencyID)
	require.NoError(t, err)
	require.Len(t, reloaded.AssignedUnits, 2)
	assert.Equal(t, "POL001", reloaded.AssignedUnits[1].UnitID)
	assert.Equal(t, models.DepartmentMulti, reloaded.Department)

	pol, err := adapter.UnitRepository().GetByUnitID(ctx, "POL001")
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusDispatched, pol.Status)
	require.NotNil(t, pol.AssignedEmergency)
	assert.Equal(t, accident.EmergencyID, *pol.AssignedEmergency)
}

func TestOtherTypeTakesNearestUnitOfAnyType(t *testing.T) {
	svc, adapter := newTestService(t)

	addUnit(t, adapter, "FIR001", models.UnitTypeFireTruck, 20.305, 85.82)
	addUnit(t, adapter, "AMB001", models.UnitTypeAmbulance, 20.35, 85.82)

	emergency := report(t, svc, models.EmergencyTypeOther, 20.30, 85.82)

	assert.Equal(t, models.EmergencyStatusInProgress, emergency.Status)
	require.Len(t, emergency.AssignedUnits, 1)
	assert.Equal(t, "FIR001", emergency.AssignedUnits[0].UnitID)
	assert.Equal(t, models.DepartmentFire, emergency.Department)
}

func TestConcurrentReportsNeverDoubleAssign(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	const ambulances = 10
	const reports = 100

	for i := 0; i < ambulances; i++ {
		addUnit(t, adapter, fmt.Sprintf("AMB%03d", i), models.UnitTypeAmbulance, 20.31+float64(i)*0.001, 85.82)
	}

	var wg sync.WaitGroup
	errs := make(chan error, reports)
	for i := 0; i < reports; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.ReportEmergency(ctx, &ports.EmergencyReport{
				UserName:      fmt.Sprintf("Reporter %d", n),
				MobileNumber:  "+919876543210",
				Location:      models.Location{Latitude: 20.30, Longitude: 85.82},
				EmergencyType: models.EmergencyTypeMedical,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := svc.ListEmergencies(ctx, ports.EmergencyFilter{}, 0, reports+1)
	require.NoError(t, err)
	require.Len(t, all, reports)

	seen := make(map[string]string)
	inProgress := 0
	for _, e := range all {
		switch e.Status {
		case models.EmergencyStatusInProgress:
			inProgress++
			require.Len(t, e.AssignedUnits, 1)
			unitID := e.AssignedUnits[0].UnitID
			if owner, dup := seen[unitID]; dup {
				t.Fatalf("unit %s assigned to both %s and %s", unitID, owner, e.EmergencyID)
			}
			seen[unitID] = e.EmergencyID
		case models.EmergencyStatusPending:
			assert.Empty(t, e.AssignedUnits)
		default:
			t.Fatalf("unexpected status %s", e.Status)
		}
	}

	assert.Equal(t, ambulances, inProgress)
	assert.Equal(t, reports-ambulances, len(all)-inProgress)
}

func TestSetUnitStatusRules(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	addUnit(t, adapter, "POL001", models.UnitTypePoliceCar, 20.31, 85.82)

	// dispatched is never a legal operator target
	_, err := svc.SetUnitStatus(ctx, "POL001", models.UnitStatusDispatched)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	// available -> offline -> available round trip
	unit, err := svc.SetUnitStatus(ctx, "POL001", models.UnitStatusOffline)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusOffline, unit.Status)

	unit, err = svc.SetUnitStatus(ctx, "POL001", models.UnitStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusAvailable, unit.Status)

	// a dispatched unit may be marked busy (on scene) but not released here
	emergency := report(t, svc, models.EmergencyTypePolice, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusInProgress, emergency.Status)

	unit, err = svc.SetUnitStatus(ctx, "POL001", models.UnitStatusBusy)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusBusy, unit.Status)

	_, err = svc.SetUnitStatus(ctx, "POL001", models.UnitStatusAvailable)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))

	_, err = svc.SetUnitStatus(ctx, "UNKNOWN", models.UnitStatusOffline)
	assert.True(t, errors.Is(err, ports.ErrUnitNotFound))
}

func TestUnitRecoveryTriggersRedispatch(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	addUnit(t, adapter, "FIR001", models.UnitTypeFireTruck, 20.31, 85.82)
	_, err := svc.SetUnitStatus(ctx, "FIR001", models.UnitStatusOffline)
	require.NoError(t, err)

	emergency := report(t, svc, models.EmergencyTypeFire, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusPending, emergency.Status)

	// the truck comes back online and picks up the waiting report
	_, err = svc.SetUnitStatus(ctx, "FIR001", models.UnitStatusAvailable)
	require.NoError(t, err)

	reloaded, err := svc.GetEmergency(ctx, emergency.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusInProgress, reloaded.Status)
}

func TestValidationRejectedAtIntake(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ReportEmergency(context.Background(), &ports.EmergencyReport{
		UserName:      "",
		MobileNumber:  "+919876543210",
		Location:      models.Location{Latitude: 20.30, Longitude: 85.82},
		EmergencyType: models.EmergencyTypeMedical,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestGetEmergencyNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetEmergency(context.Background(), "EMG-MISSING")
	assert.True(t, errors.Is(err, ports.ErrEmergencyNotFound))
}

// failingAuditRepository rejects every append after a threshold, simulating a
// storage outage in the middle of a transition
type failingAuditRepository struct {
	inner     ports.AuditRepository
	allowed   int
	performed int
}

func (f *failingAuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if f.performed >= f.allowed {
		return errors.New("audit store down")
	}
	f.performed++
	return f.inner.Append(ctx, entry)
}

func (f *failingAuditRepository) History(ctx context.Context, emergencyID string) ([]*models.AuditEntry, error) {
	return f.inner.History(ctx, emergencyID)
}

func TestCreateRolledBackWhenAuditFails(t *testing.T) {
	adapter := memory.NewAdapter()
	svc := NewDispatchService(
		adapter.EmergencyRepository(),
		adapter.UnitRepository(),
		adapter.AuditRepository(),
		adapter.AdminRepository(),
		nil,
		Options{},
	)
	ctx := context.Background()

	failing := &failingAuditRepository{inner: adapter.AuditRepository(), allowed: 0}
	svcFailing := NewDispatchService(
		adapter.EmergencyRepository(),
		adapter.UnitRepository(),
		failing,
		adapter.AdminRepository(),
		nil,
		Options{},
	)

	_, err := svcFailing.ReportEmergency(ctx, &ports.EmergencyReport{
		UserName:      "Asha Rao",
		MobileNumber:  "+919876543210",
		Location:      models.Location{Latitude: 20.30, Longitude: 85.82},
		EmergencyType: models.EmergencyTypeMedical,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))

	// the create was compensated: no half-written emergency remains
	all, err := svc.ListEmergencies(ctx, ports.EmergencyFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAssignmentRolledBackWhenAuditFails(t *testing.T) {
	adapter := memory.NewAdapter()
	ctx := context.Background()

	// allow the emergency_created entry, fail the assignment entries
	failing := &failingAuditRepository{inner: adapter.AuditRepository(), allowed: 1}
	svc := NewDispatchService(
		adapter.EmergencyRepository(),
		adapter.UnitRepository(),
		failing,
		adapter.AdminRepository(),
		nil,
		Options{},
	)

	unit := &models.ResponseUnit{
		UnitID:          "AMB001",
		UnitName:        "AMB001",
		UnitType:        models.UnitTypeAmbulance,
		Department:      models.DepartmentMedical,
		CurrentLocation: models.Location{Latitude: 20.31, Longitude: 85.82},
		Status:          models.UnitStatusAvailable,
		LastUpdated:     time.Now().UTC(),
	}
	require.NoError(t, adapter.UnitRepository().Create(ctx, unit))

	// the report commits; the assignment aborts and compensates
	emergency, err := svc.ReportEmergency(ctx, &ports.EmergencyReport{
		UserName:      "Asha Rao",
		MobileNumber:  "+919876543210",
		Location:      models.Location{Latitude: 20.30, Longitude: 85.82},
		EmergencyType: models.EmergencyTypeMedical,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusPending, emergency.Status)
	assert.Empty(t, emergency.AssignedUnits)

	// the reserved ambulance was released again
	reloaded, err := adapter.UnitRepository().GetByUnitID(ctx, "AMB001")
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusAvailable, reloaded.Status)
	assert.Nil(t, reloaded.AssignedEmergency)
}

// racingEmergencyRepository applies a concurrent cancellation right before
// the first status-changing update goes through, so that update loses the
// version race
type racingEmergencyRepository struct {
	inner ports.EmergencyRepository
	once  sync.Once
}

func (r *racingEmergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	return r.inner.Create(ctx, emergency)
}

func (r *racingEmergencyRepository) GetByEmergencyID(ctx context.Context, emergencyID string) (*models.Emergency, error) {
	return r.inner.GetByEmergencyID(ctx, emergencyID)
}

func (r *racingEmergencyRepository) List(ctx context.Context, filter ports.EmergencyFilter, offset, limit int) ([]*models.Emergency, error) {
	return r.inner.List(ctx, filter, offset, limit)
}

func (r *racingEmergencyRepository) Update(ctx context.Context, emergency *models.Emergency) error {
	if emergency.Status == models.EmergencyStatusInProgress {
		r.once.Do(func() {
			current, err := r.inner.GetByEmergencyID(ctx, emergency.EmergencyID)
			if err != nil {
				return
			}
			cancelled := current.Clone()
			cancelled.Status = models.EmergencyStatusCancelled
			_ = r.inner.Update(ctx, cancelled)
		})
	}
	return r.inner.Update(ctx, emergency)
}

func (r *racingEmergencyRepository) Remove(ctx context.Context, emergencyID string) error {
	return r.inner.Remove(ctx, emergencyID)
}

func TestCancellationWinsOverAssignment(t *testing.T) {
	adapter := memory.NewAdapter()
	racing := &racingEmergencyRepository{inner: adapter.EmergencyRepository()}
	svc := NewDispatchService(
		racing,
		adapter.UnitRepository(),
		adapter.AuditRepository(),
		adapter.AdminRepository(),
		nil,
		Options{},
	)
	ctx := context.Background()

	// no units yet, so the report parks the emergency in pending
	emergency := report(t, svc, models.EmergencyTypeMedical, 20.30, 85.82)
	require.Equal(t, models.EmergencyStatusPending, emergency.Status)

	addUnit(t, adapter, "AMB001", models.UnitTypeAmbulance, 20.31, 85.82)

	// the assignment reserves AMB001, then loses the commit to the
	// cancellation and hands the unit back
	result, err := svc.Assign(ctx, emergency.EmergencyID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusCancelled, result.Emergency.Status)
	assert.Empty(t, result.Reserved)
	assert.Empty(t, result.Emergency.AssignedUnits)

	unit, err := adapter.UnitRepository().GetByUnitID(ctx, "AMB001")
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusAvailable, unit.Status)
	assert.Nil(t, unit.AssignedEmergency)

	// the abandoned round left no assignment entries behind
	history, err := svc.History(ctx, emergency.EmergencyID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.LogActionEmergencyCreated, history[0].Action)
}

func TestListEmergenciesOldestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := report(t, svc, models.EmergencyTypeFire, 20.30, 85.82)
	time.Sleep(2 * time.Millisecond)
	second := report(t, svc, models.EmergencyTypeFire, 20.31, 85.82)

	status := models.EmergencyStatusPending
	pending, err := svc.ListEmergencies(ctx, ports.EmergencyFilter{Status: &status}, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.EmergencyID, pending[0].EmergencyID)
	assert.Equal(t, second.EmergencyID, pending[1].EmergencyID)
}

func TestSeedIdempotent(t *testing.T) {
	svc, adapter := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	units, err := adapter.UnitRepository().List(ctx, ports.UnitFilter{})
	require.NoError(t, err)
	assert.Len(t, units, 3)

	admin, err := adapter.AdminRepository().GetByUsername(ctx, "superadmin")
	require.NoError(t, err)
	assert.Equal(t, models.DepartmentSuperadmin, admin.Department)
	assert.NotEqual(t, "admin123", admin.Password) // stored hashed
}
