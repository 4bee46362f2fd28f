package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/jmoiron/sqlx"
)

// adminRepository implements the AdminRepository interface using PostgreSQL
type adminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new PostgreSQL admin repository
func NewAdminRepository(db *sqlx.DB) ports.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, admin *models.Admin) error {
	query := `
		INSERT INTO admins (username, password, name, department, phone, email, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		admin.Username, admin.Password, admin.Name, admin.Department,
		admin.Phone, admin.Email, admin.IsActive, admin.CreatedAt,
	).Scan(&admin.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `
		SELECT id, username, password, name, department, phone, email, is_active, created_at
		FROM admins
		WHERE username = $1
	`

	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}
