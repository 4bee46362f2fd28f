package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
)

// EmergencyRepository is an in-memory implementation backing tests and the
// default runtime. Records are stored and returned as deep copies so callers
// never alias repository state.
type EmergencyRepository struct {
	mu          sync.RWMutex
	emergencies map[string]*models.Emergency
	nextID      int64
}

// NewEmergencyRepository creates a new in-memory emergency repository
func NewEmergencyRepository() *EmergencyRepository {
	return &EmergencyRepository{
		emergencies: make(map[string]*models.Emergency),
		nextID:      1,
	}
}

func (r *EmergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emergencies[emergency.EmergencyID]; exists {
		return ports.ErrAlreadyExists
	}

	emergency.ID = r.nextID
	r.nextID++
	emergency.Version = 1
	r.emergencies[emergency.EmergencyID] = emergency.Clone()
	return nil
}

func (r *EmergencyRepository) GetByEmergencyID(ctx context.Context, emergencyID string) (*models.Emergency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emergency, ok := r.emergencies[emergencyID]
	if !ok {
		return nil, ports.ErrEmergencyNotFound
	}
	return emergency.Clone(), nil
}

func (r *EmergencyRepository) List(ctx context.Context, filter ports.EmergencyFilter, offset, limit int) ([]*models.Emergency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Emergency, 0)
	for _, e := range r.emergencies {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Department != nil && e.Department != *filter.Department {
			continue
		}
		matched = append(matched, e)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].EmergencyID < matched[j].EmergencyID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*models.Emergency{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	result := make([]*models.Emergency, 0, len(matched))
	for _, e := range matched {
		result = append(result, e.Clone())
	}
	return result, nil
}

func (r *EmergencyRepository) Update(ctx context.Context, emergency *models.Emergency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.emergencies[emergency.EmergencyID]
	if !ok {
		return ports.ErrEmergencyNotFound
	}
	if current.Version != emergency.Version {
		return ports.ErrVersionConflict
	}

	emergency.Version++
	r.emergencies[emergency.EmergencyID] = emergency.Clone()
	return nil
}

func (r *EmergencyRepository) Remove(ctx context.Context, emergencyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.emergencies[emergencyID]; !ok {
		return ports.ErrEmergencyNotFound
	}
	delete(r.emergencies, emergencyID)
	return nil
}
