package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/instanthelp/dispatch/internal/metrics"
)

// transitionMaxRetries bounds the optimistic-update retry loop when two
// operators race to advance the same emergency
const transitionMaxRetries = 3

// UpdateStatus applies a requested lifecycle transition. Resolving or
// cancelling an in_progress emergency releases all of its assigned units and
// recomputes response_time as total elapsed creation to resolution. The
// status mutation and its audit entry commit together: an audit failure
// rolls the mutation back.
func (s *dispatchService) UpdateStatus(ctx context.Context, req *ports.StatusUpdateRequest) (*models.Emergency, error) {
	if err := models.ValidateEmergencyStatus(req.Target); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrValidation, err)
	}

	for attempt := 0; attempt < transitionMaxRetries; attempt++ {
		emergency, err := s.emergencies.GetByEmergencyID(ctx, req.EmergencyID)
		if err != nil {
			return nil, err
		}

		if !models.CanTransition(emergency.Status, req.Target) {
			metrics.TransitionsRejectedTotal.WithLabelValues(string(emergency.Status), string(req.Target)).Inc()
			return nil, &models.TransitionError{From: emergency.Status, To: req.Target}
		}

		now := time.Now().UTC()
		updated := emergency.Clone()
		updated.Status = req.Target
		updated.UpdatedAt = now
		if req.Target == models.EmergencyStatusResolved {
			rt := int64(now.Sub(emergency.CreatedAt).Seconds())
			updated.ResponseTime = &rt
		}

		if err := s.emergencies.Update(ctx, updated); err != nil {
			if errors.Is(err, ports.ErrVersionConflict) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}

		entry := &models.AuditEntry{
			EmergencyID: req.EmergencyID,
			Action:      models.LogActionStatusUpdated,
			Department:  req.Department,
			AdminName:   req.ActorName,
			Notes:       req.Notes,
			CreatedAt:   now,
		}
		if req.Target == models.EmergencyStatusResolved {
			entry.Action = models.LogActionResponseCompleted
		}
		if err := s.audit.Append(ctx, entry); err != nil {
			rollback := emergency.Clone()
			rollback.Version = updated.Version
			if rerr := s.emergencies.Update(ctx, rollback); rerr != nil {
				s.logger.Errorw("Transition rollback failed", "emergency_id", req.EmergencyID, "error", rerr)
			}
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}

		s.invalidateCache(req.EmergencyID)
		s.logger.Infow("Emergency status updated", "emergency_id", req.EmergencyID, "from", emergency.Status, "to", req.Target)

		if models.IsTerminal(req.Target) && len(updated.AssignedUnits) > 0 {
			s.releaseAssignedUnits(ctx, updated)
		}

		return updated, nil
	}

	return nil, fmt.Errorf("%w: transition retries exhausted for %s", ErrStorage, req.EmergencyID)
}

// releaseAssignedUnits returns every unit of a terminal emergency to the
// available pool and hands the freed capacity to pending emergencies.
func (s *dispatchService) releaseAssignedUnits(ctx context.Context, emergency *models.Emergency) {
	released := 0
	for _, a := range emergency.AssignedUnits {
		if err := s.units.Release(ctx, a.UnitID); err != nil {
			s.logger.Errorw("Failed to release unit", "unit_id", a.UnitID, "emergency_id", emergency.EmergencyID, "error", err)
			continue
		}
		released++
	}

	if released > 0 {
		if err := s.RedispatchPending(ctx); err != nil {
			s.logger.Warnw("Redispatch after release failed", "error", err)
		}
	}
}
