package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/jmoiron/sqlx"
)

// auditRepository implements the append-only AuditRepository using PostgreSQL
type auditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new PostgreSQL audit repository
func NewAuditRepository(db *sqlx.DB) ports.AuditRepository {
	return &auditRepository{db: db}
}

type auditRow struct {
	ID          int64     `db:"id"`
	EmergencyID string    `db:"emergency_id"`
	Action      string    `db:"action"`
	Department  *string   `db:"department"`
	AdminName   *string   `db:"admin_name"`
	Notes       *string   `db:"notes"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO emergency_logs (emergency_id, action, department, admin_name, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		entry.EmergencyID, entry.Action, entry.Department,
		entry.AdminName, entry.Notes, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) History(ctx context.Context, emergencyID string) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, emergency_id, action, department, admin_name, notes, created_at
		FROM emergency_logs
		WHERE emergency_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var rows []auditRow
	if err := r.db.SelectContext(ctx, &rows, query, emergencyID); err != nil {
		return nil, fmt.Errorf("failed to load audit history: %w", err)
	}

	entries := make([]*models.AuditEntry, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		var department *models.Department
		if row.Department != nil {
			d := models.Department(*row.Department)
			department = &d
		}
		entries = append(entries, &models.AuditEntry{
			ID:          row.ID,
			EmergencyID: row.EmergencyID,
			Action:      models.LogAction(row.Action),
			Department:  department,
			AdminName:   row.AdminName,
			Notes:       row.Notes,
			CreatedAt:   row.CreatedAt,
		})
	}
	return entries, nil
}
