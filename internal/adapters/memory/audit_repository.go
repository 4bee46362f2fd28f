package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/instanthelp/dispatch/internal/domain/models"
)

// AuditRepository is an in-memory append-only audit log
type AuditRepository struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
	nextID  int64
}

// NewAuditRepository creates a new in-memory audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{
		entries: make([]*models.AuditEntry, 0),
		nextID:  1,
	}
}

func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = r.nextID
	r.nextID++
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *AuditRepository) History(ctx context.Context, emergencyID string) ([]*models.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.AuditEntry, 0)
	for _, e := range r.entries {
		if e.EmergencyID == emergencyID {
			entry := *e
			result = append(result, &entry)
		}
	}

	// insertion order already matches creation time; ids disambiguate
	// entries stamped in the same instant
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
