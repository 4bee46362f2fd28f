package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/instanthelp/dispatch/internal/config"
	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/instanthelp/dispatch/internal/metrics"
	"github.com/instanthelp/dispatch/internal/observability"
)

var (
	// ErrStorage marks a persistence failure that aborted the in-flight
	// transition. Surfaced to callers as retryable.
	ErrStorage = errors.New("storage failure")
)

// Options carries the dispatch policy knobs
type Options struct {
	ResponseTimePolicy config.ResponseTimePolicy
	CacheTTLSeconds    int
}

// dispatchService implements the DispatchService interface
type dispatchService struct {
	emergencies ports.EmergencyRepository
	units       ports.UnitRepository
	audit       ports.AuditRepository
	admins      ports.AdminRepository
	cache       ports.CacheRepository // optional
	opts        Options
	logger      observability.Logger
}

// NewDispatchService creates a new dispatch service instance
func NewDispatchService(
	emergencies ports.EmergencyRepository,
	units ports.UnitRepository,
	audit ports.AuditRepository,
	admins ports.AdminRepository,
	cache ports.CacheRepository,
	opts Options,
) ports.DispatchService {
	if opts.ResponseTimePolicy == "" {
		opts.ResponseTimePolicy = config.ResponseTimeFirstAssignment
	}
	if opts.CacheTTLSeconds <= 0 {
		opts.CacheTTLSeconds = 300
	}
	return &dispatchService{
		emergencies: emergencies,
		units:       units,
		audit:       audit,
		admins:      admins,
		cache:       cache,
		opts:        opts,
		logger:      observability.New("dispatch-service", ""),
	}
}

// ReportEmergency validates and persists a new emergency, then runs the
// assignment engine over it. An exhausted unit pool leaves the emergency
// pending; that is a deferred state, not an error.
func (s *dispatchService) ReportEmergency(ctx context.Context, report *ports.EmergencyReport) (*models.Emergency, error) {
	severity := models.SeverityMedium
	if report.Severity != nil {
		severity = *report.Severity
	}

	now := time.Now().UTC()
	emergency := &models.Emergency{
		EmergencyID:   newEmergencyID(),
		UserName:      strings.TrimSpace(report.UserName),
		MobileNumber:  strings.TrimSpace(report.MobileNumber),
		Location:      report.Location,
		Address:       report.Address,
		EmergencyType: report.EmergencyType,
		Description:   report.Description,
		Severity:      severity,
		Status:        models.EmergencyStatusPending,
		Department:    models.DepartmentPending,
		AssignedUnits: []models.UnitAssignment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := emergency.Validate(); err != nil {
		s.logger.Warnw("ReportEmergency rejected", "error", err)
		return nil, err
	}

	if err := s.emergencies.Create(ctx, emergency); err != nil {
		s.logger.Errorw("ReportEmergency failed to persist", "emergency_id", emergency.EmergencyID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	entry := &models.AuditEntry{
		EmergencyID: emergency.EmergencyID,
		Action:      models.LogActionEmergencyCreated,
		CreatedAt:   now,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		// the create is not committed without its audit entry
		if rerr := s.emergencies.Remove(ctx, emergency.EmergencyID); rerr != nil {
			s.logger.Errorw("ReportEmergency rollback failed", "emergency_id", emergency.EmergencyID, "error", rerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	metrics.EmergenciesCreatedTotal.WithLabelValues(string(emergency.EmergencyType), string(emergency.Severity)).Inc()
	s.logger.Infow("Emergency created", "emergency_id", emergency.EmergencyID, "type", emergency.EmergencyType, "severity", emergency.Severity)

	result, err := s.Assign(ctx, emergency.EmergencyID)
	if err != nil {
		// the report itself is committed; assignment can be retried by the sweep
		s.logger.Errorw("Initial assignment failed", "emergency_id", emergency.EmergencyID, "error", err)
		return emergency, nil
	}
	return result.Emergency, nil
}

// GetEmergency retrieves an emergency, consulting the read cache first
func (s *dispatchService) GetEmergency(ctx context.Context, emergencyID string) (*models.Emergency, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, emergencyID); err == nil && cached != nil {
			return cached, nil
		}
	}

	emergency, err := s.emergencies.GetByEmergencyID(ctx, emergencyID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func() {
			_ = s.cache.Set(context.Background(), emergencyID, emergency, s.opts.CacheTTLSeconds)
		}()
	}

	return emergency, nil
}

// ListEmergencies retrieves emergencies matching the filter, oldest first
func (s *dispatchService) ListEmergencies(ctx context.Context, filter ports.EmergencyFilter, offset, limit int) ([]*models.Emergency, error) {
	return s.emergencies.List(ctx, filter, offset, limit)
}

// History retrieves the ordered audit trail of an emergency
func (s *dispatchService) History(ctx context.Context, emergencyID string) ([]*models.AuditEntry, error) {
	if _, err := s.emergencies.GetByEmergencyID(ctx, emergencyID); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, emergencyID)
}

// ListUnits retrieves response units for operator dashboards
func (s *dispatchService) ListUnits(ctx context.Context, filter ports.UnitFilter) ([]*models.ResponseUnit, error) {
	return s.units.List(ctx, filter)
}

// SetUnitStatus applies an operator-reported unit state change. Reservation
// and release stay with the assignment engine and lifecycle transitions:
// dispatched is never a legal operator target, and available is reachable
// here only from offline.
func (s *dispatchService) SetUnitStatus(ctx context.Context, unitID string, target models.UnitStatus) (*models.ResponseUnit, error) {
	if err := models.ValidateUnitStatus(target); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	if target == models.UnitStatusDispatched {
		return nil, fmt.Errorf("%w: units are dispatched by the assignment engine", models.ErrInvalidTransition)
	}

	unit, err := s.units.GetByUnitID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	if !models.CanUnitTransition(unit.Status, target) {
		return nil, fmt.Errorf("%w: unit %s cannot move %s -> %s", models.ErrInvalidTransition, unitID, unit.Status, target)
	}
	if target == models.UnitStatusAvailable && unit.Status != models.UnitStatusOffline {
		return nil, fmt.Errorf("%w: assigned units are released on emergency resolution", models.ErrInvalidTransition)
	}

	if err := s.units.SetStatus(ctx, unitID, unit.Status, target); err != nil {
		return nil, err
	}

	s.logger.Infow("Unit status updated", "unit_id", unitID, "from", unit.Status, "to", target)

	// a unit returning from offline is new capacity for pending emergencies
	if target == models.UnitStatusAvailable {
		if err := s.RedispatchPending(ctx); err != nil {
			s.logger.Warnw("Redispatch after unit recovery failed", "error", err)
		}
	}

	return s.units.GetByUnitID(ctx, unitID)
}

func (s *dispatchService) invalidateCache(emergencyID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(context.Background(), emergencyID)
}

func newEmergencyID() string {
	return "EMG-" + strings.ToUpper(uuid.New().String()[:8])
}
