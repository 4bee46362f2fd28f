package memory

import (
	"context"
	"sync"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
)

// AdminRepository is an in-memory operator account store
type AdminRepository struct {
	mu     sync.RWMutex
	admins map[string]*models.Admin
	nextID int64
}

// NewAdminRepository creates a new in-memory admin repository
func NewAdminRepository() *AdminRepository {
	return &AdminRepository{
		admins: make(map[string]*models.Admin),
		nextID: 1,
	}
}

func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[admin.Username]; exists {
		return ports.ErrAlreadyExists
	}

	admin.ID = r.nextID
	r.nextID++
	stored := *admin
	r.admins[admin.Username] = &stored
	return nil
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[username]
	if !ok {
		return nil, ports.ErrAdminNotFound
	}
	result := *admin
	return &result, nil
}
