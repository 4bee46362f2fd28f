package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/instanthelp/dispatch/internal/config"
	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/instanthelp/dispatch/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// assignMaxRetries bounds the reload-and-retry loop on emergency version
// conflicts. Each retry releases everything reserved in the failed round, so
// giving up leaves no unit dangling.
const assignMaxRetries = 3

// sweepBatchSize caps how many pending emergencies one sweep round loads
const sweepBatchSize = 100

// Assign runs the assignment engine for one emergency: pick the target unit
// types from the emergency type, walk the available units of each type
// nearest first, and reserve the first one that is still free. Re-running on
// an emergency whose departments are already covered is a no-op.
func (s *dispatchService) Assign(ctx context.Context, emergencyID string) (*ports.AssignmentResult, error) {
	timer := prometheus.NewTimer(metrics.AssignmentDuration)
	defer timer.ObserveDuration()

	for attempt := 0; attempt < assignMaxRetries; attempt++ {
		emergency, err := s.emergencies.GetByEmergencyID(ctx, emergencyID)
		if err != nil {
			return nil, err
		}
		if models.IsTerminal(emergency.Status) {
			return &ports.AssignmentResult{Emergency: emergency}, nil
		}

		missing := s.missingUnitTypes(emergency)
		reserved, deferred, err := s.reserveCandidates(ctx, emergency, missing)
		if err != nil {
			s.releaseUnits(ctx, reserved)
			return nil, err
		}
		if len(reserved) == 0 {
			return &ports.AssignmentResult{Emergency: emergency, Deferred: deferred}, nil
		}

		result, retry, err := s.commitAssignments(ctx, emergency, reserved, deferred)
		if err != nil {
			return nil, err
		}
		if retry {
			continue
		}
		return result, nil
	}

	return nil, fmt.Errorf("%w: assignment retries exhausted for %s", ErrStorage, emergencyID)
}

// missingUnitTypes returns the required unit types not yet covered by the
// emergency's assignments. An empty slice with a non-empty requirement list
// means nothing is left to do.
func (s *dispatchService) missingUnitTypes(emergency *models.Emergency) []models.UnitType {
	required := models.RequiredUnitTypes(emergency.EmergencyType)
	if required == nil {
		// "other": best effort with any single unit
		if len(emergency.AssignedUnits) > 0 {
			return nil
		}
		return []models.UnitType{""}
	}
	missing := make([]models.UnitType, 0, len(required))
	for _, t := range required {
		if !emergency.HasUnitType(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// reserveCandidates attempts one reservation per missing unit type, walking
// candidates nearest first. A lost race moves on to the next candidate; an
// exhausted pool defers the type. Only storage failures are errors.
func (s *dispatchService) reserveCandidates(ctx context.Context, emergency *models.Emergency, missing []models.UnitType) ([]*models.ResponseUnit, []models.UnitType, error) {
	var reserved []*models.ResponseUnit
	var deferred []models.UnitType

	for _, unitType := range missing {
		var department *models.Department
		var typeFilter *models.UnitType
		if unitType != "" {
			d := models.UnitTypeDepartment(unitType)
			t := unitType
			department = &d
			typeFilter = &t
		}

		candidates, err := s.units.ListAvailable(ctx, department, typeFilter)
		if err != nil {
			return reserved, nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		sortByDistance(candidates, emergency.Location)

		var won *models.ResponseUnit
		for _, candidate := range candidates {
			rerr := s.units.Reserve(ctx, candidate.UnitID, emergency.EmergencyID)
			if rerr == nil {
				won = candidate
				break
			}
			if errors.Is(rerr, ports.ErrUnitUnavailable) {
				metrics.ReservationConflictsTotal.Inc()
				continue
			}
			return reserved, nil, fmt.Errorf("%w: %v", ErrStorage, rerr)
		}

		if won == nil {
			if unitType != "" {
				metrics.AssignmentsDeferredTotal.WithLabelValues(string(unitType)).Inc()
				deferred = append(deferred, unitType)
			}
			continue
		}
		metrics.UnitsReservedTotal.WithLabelValues(string(won.Department), string(won.UnitType)).Inc()
		reserved = append(reserved, won)
	}

	return reserved, deferred, nil
}

// commitAssignments appends the reservations to the emergency record and
// writes the audit entries. When the optimistic update loses to a concurrent
// cancellation, every unit reserved in this round is released again and the
// run ends without error; other version conflicts release and signal a retry.
func (s *dispatchService) commitAssignments(ctx context.Context, emergency *models.Emergency, reserved []*models.ResponseUnit, deferred []models.UnitType) (*ports.AssignmentResult, bool, error) {
	now := time.Now().UTC()
	firstReservation := len(emergency.AssignedUnits) == 0

	updated := emergency.Clone()
	assignments := make([]models.UnitAssignment, 0, len(reserved))
	for _, unit := range reserved {
		a := models.UnitAssignment{UnitType: unit.UnitType, UnitID: unit.UnitID, AssignedAt: now}
		assignments = append(assignments, a)
		updated.AssignedUnits = append(updated.AssignedUnits, a)
	}
	previousDepartment := updated.Department
	updated.Department = updated.EffectiveDepartment()
	if updated.Status == models.EmergencyStatusPending {
		updated.Status = models.EmergencyStatusInProgress
	}
	if firstReservation && s.opts.ResponseTimePolicy == config.ResponseTimeFirstAssignment {
		rt := int64(now.Sub(emergency.CreatedAt).Seconds())
		updated.ResponseTime = &rt
		metrics.ResponseTimeSeconds.Observe(float64(rt))
	}
	updated.UpdatedAt = now

	if err := s.emergencies.Update(ctx, updated); err != nil {
		s.releaseUnits(ctx, reserved)
		if !errors.Is(err, ports.ErrVersionConflict) {
			return nil, false, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		current, gerr := s.emergencies.GetByEmergencyID(ctx, emergency.EmergencyID)
		if gerr == nil && models.IsTerminal(current.Status) {
			// cancellation won the race; the compensating release above
			// already returned the units
			s.logger.Infow("Assignment abandoned, emergency reached terminal state", "emergency_id", emergency.EmergencyID, "status", current.Status)
			return &ports.AssignmentResult{Emergency: current}, false, nil
		}
		return nil, true, nil
	}

	if err := s.auditAssignments(ctx, updated, previousDepartment, assignments, now); err != nil {
		// roll the emergency back and release the units: the transition is
		// not committed without its audit entries
		rollback := emergency.Clone()
		rollback.Version = updated.Version
		if rerr := s.emergencies.Update(ctx, rollback); rerr != nil {
			s.logger.Errorw("Assignment rollback failed", "emergency_id", emergency.EmergencyID, "error", rerr)
		}
		s.releaseUnits(ctx, reserved)
		return nil, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.invalidateCache(emergency.EmergencyID)
	s.logger.Infow("Units assigned", "emergency_id", emergency.EmergencyID, "department", updated.Department, "units", len(assignments), "deferred", len(deferred))

	return &ports.AssignmentResult{Emergency: updated, Reserved: assignments, Deferred: deferred}, false, nil
}

// auditAssignments appends the department_assigned entry (when the
// department value changed) followed by one unit_dispatched entry per
// reserved unit, in that order.
func (s *dispatchService) auditAssignments(ctx context.Context, emergency *models.Emergency, previousDepartment models.Department, assignments []models.UnitAssignment, now time.Time) error {
	if emergency.Department != previousDepartment {
		dept := emergency.Department
		if err := s.audit.Append(ctx, &models.AuditEntry{
			EmergencyID: emergency.EmergencyID,
			Action:      models.LogActionDepartmentAssigned,
			Department:  &dept,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
	}
	for _, a := range assignments {
		dept := models.UnitTypeDepartment(a.UnitType)
		notes := fmt.Sprintf("unit %s dispatched", a.UnitID)
		if err := s.audit.Append(ctx, &models.AuditEntry{
			EmergencyID: emergency.EmergencyID,
			Action:      models.LogActionUnitDispatched,
			Department:  &dept,
			Notes:       &notes,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
	}
	return nil
}

// releaseUnits is the compensating action for an abandoned assignment round
func (s *dispatchService) releaseUnits(ctx context.Context, units []*models.ResponseUnit) {
	for _, unit := range units {
		if err := s.units.Release(ctx, unit.UnitID); err != nil {
			s.logger.Errorw("Failed to release unit", "unit_id", unit.UnitID, "error", err)
		}
	}
}

// RedispatchPending re-runs the assignment engine over emergencies that
// still need units, oldest first: every pending emergency, plus in_progress
// emergencies whose required unit types are not all covered yet (a deferred
// department on a multi-department emergency). Exhausted pools stay
// deferred; only storage failures surface.
func (s *dispatchService) RedispatchPending(ctx context.Context) error {
	var firstErr error
	redispatch := func(emergency *models.Emergency) {
		if _, err := s.Assign(ctx, emergency.EmergencyID); err != nil {
			s.logger.Errorw("Redispatch failed", "emergency_id", emergency.EmergencyID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	pendingStatus := models.EmergencyStatusPending
	pending, err := s.emergencies.List(ctx, ports.EmergencyFilter{Status: &pendingStatus}, 0, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for _, emergency := range pending {
		redispatch(emergency)
	}

	inProgressStatus := models.EmergencyStatusInProgress
	inProgress, err := s.emergencies.List(ctx, ports.EmergencyFilter{Status: &inProgressStatus}, 0, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for _, emergency := range inProgress {
		if len(s.missingUnitTypes(emergency)) == 0 {
			continue
		}
		redispatch(emergency)
	}
	return firstErr
}

// sortByDistance orders candidates by ascending haversine distance to the
// emergency location, ties broken by unit id for determinism.
func sortByDistance(units []*models.ResponseUnit, location models.Location) {
	sort.Slice(units, func(i, j int) bool {
		di := models.Distance(units[i].CurrentLocation, location)
		dj := models.Distance(units[j].CurrentLocation, location)
		if di == dj {
			return units[i].UnitID < units[j].UnitID
		}
		return di < dj
	})
}
