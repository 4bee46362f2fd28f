package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
)

// UnitRepository is an in-memory unit registry. Reserve performs the status
// compare-and-set under the registry lock, which makes it linearizable per
// unit: of any number of concurrent reservations for the same unit exactly
// one observes "available".
type UnitRepository struct {
	mu     sync.Mutex
	units  map[string]*models.ResponseUnit
	nextID int64
}

// NewUnitRepository creates a new in-memory unit repository
func NewUnitRepository() *UnitRepository {
	return &UnitRepository{
		units:  make(map[string]*models.ResponseUnit),
		nextID: 1,
	}
}

func cloneUnit(u *models.ResponseUnit) *models.ResponseUnit {
	c := *u
	if u.AssignedEmergency != nil {
		id := *u.AssignedEmergency
		c.AssignedEmergency = &id
	}
	if u.CurrentLocation.Accuracy != nil {
		acc := *u.CurrentLocation.Accuracy
		c.CurrentLocation.Accuracy = &acc
	}
	return &c
}

func (r *UnitRepository) Create(ctx context.Context, unit *models.ResponseUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.units[unit.UnitID]; exists {
		return ports.ErrAlreadyExists
	}

	unit.ID = r.nextID
	r.nextID++
	r.units[unit.UnitID] = cloneUnit(unit)
	return nil
}

func (r *UnitRepository) GetByUnitID(ctx context.Context, unitID string) (*models.ResponseUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[unitID]
	if !ok {
		return nil, ports.ErrUnitNotFound
	}
	return cloneUnit(unit), nil
}

func (r *UnitRepository) List(ctx context.Context, filter ports.UnitFilter) ([]*models.ResponseUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.ResponseUnit, 0)
	for _, u := range r.units {
		if filter.Department != nil && u.Department != *filter.Department {
			continue
		}
		if filter.UnitType != nil && u.UnitType != *filter.UnitType {
			continue
		}
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		result = append(result, cloneUnit(u))
	}

	sort.Slice(result, func(i, j int) bool { return result[i].UnitID < result[j].UnitID })
	return result, nil
}

func (r *UnitRepository) ListAvailable(ctx context.Context, department *models.Department, unitType *models.UnitType) ([]*models.ResponseUnit, error) {
	status := models.UnitStatusAvailable
	return r.List(ctx, ports.UnitFilter{Department: department, UnitType: unitType, Status: &status})
}

func (r *UnitRepository) Reserve(ctx context.Context, unitID, emergencyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[unitID]
	if !ok {
		return ports.ErrUnitNotFound
	}
	if unit.Status != models.UnitStatusAvailable {
		return ports.ErrUnitUnavailable
	}

	unit.Status = models.UnitStatusDispatched
	unit.AssignedEmergency = &emergencyID
	unit.LastUpdated = time.Now().UTC()
	return nil
}

func (r *UnitRepository) Release(ctx context.Context, unitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[unitID]
	if !ok {
		return ports.ErrUnitNotFound
	}
	if unit.Status != models.UnitStatusDispatched && unit.Status != models.UnitStatusBusy {
		return ports.ErrUnitStateConflict
	}

	unit.Status = models.UnitStatusAvailable
	unit.AssignedEmergency = nil
	unit.LastUpdated = time.Now().UTC()
	return nil
}

func (r *UnitRepository) SetStatus(ctx context.Context, unitID string, from, to models.UnitStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unit, ok := r.units[unitID]
	if !ok {
		return ports.ErrUnitNotFound
	}
	if unit.Status != from {
		return ports.ErrUnitStateConflict
	}

	unit.Status = to
	// offline units and units back in the pool carry no emergency reference
	if to == models.UnitStatusOffline || to == models.UnitStatusAvailable {
		unit.AssignedEmergency = nil
	}
	unit.LastUpdated = time.Now().UTC()
	return nil
}
