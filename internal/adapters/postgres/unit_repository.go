package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/jmoiron/sqlx"
)

// unitRepository implements the UnitRepository interface using PostgreSQL.
// Reserve relies on a single conditional UPDATE, so the row lock taken by
// Postgres is the per-unit mutual exclusion point.
type unitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository creates a new PostgreSQL unit repository
func NewUnitRepository(db *sqlx.DB) ports.UnitRepository {
	return &unitRepository{db: db}
}

type unitRow struct {
	ID                int64     `db:"id"`
	UnitID            string    `db:"unit_id"`
	UnitName          string    `db:"unit_name"`
	UnitType          string    `db:"unit_type"`
	Department        string    `db:"department"`
	Latitude          float64   `db:"latitude"`
	Longitude         float64   `db:"longitude"`
	Status            string    `db:"status"`
	AssignedEmergency *string   `db:"assigned_emergency"`
	LastUpdated       time.Time `db:"last_updated"`
}

const unitColumns = `id, unit_id, unit_name, unit_type, department, latitude, longitude,
	status, assigned_emergency, last_updated`

func (row *unitRow) toModel() *models.ResponseUnit {
	return &models.ResponseUnit{
		ID:         row.ID,
		UnitID:     row.UnitID,
		UnitName:   row.UnitName,
		UnitType:   models.UnitType(row.UnitType),
		Department: models.Department(row.Department),
		CurrentLocation: models.Location{
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
		},
		Status:            models.UnitStatus(row.Status),
		AssignedEmergency: row.AssignedEmergency,
		LastUpdated:       row.LastUpdated,
	}
}

func (r *unitRepository) Create(ctx context.Context, unit *models.ResponseUnit) error {
	query := `
		INSERT INTO response_units (
			unit_id, unit_name, unit_type, department, latitude, longitude,
			status, assigned_emergency, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		unit.UnitID, unit.UnitName, unit.UnitType, unit.Department,
		unit.CurrentLocation.Latitude, unit.CurrentLocation.Longitude,
		unit.Status, unit.AssignedEmergency, unit.LastUpdated,
	).Scan(&unit.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

func (r *unitRepository) GetByUnitID(ctx context.Context, unitID string) (*models.ResponseUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM response_units WHERE unit_id = $1`

	var row unitRow
	if err := r.db.GetContext(ctx, &row, query, unitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	return row.toModel(), nil
}

func (r *unitRepository) List(ctx context.Context, filter ports.UnitFilter) ([]*models.ResponseUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM response_units`
	var conditions []string
	var args []interface{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.UnitType != nil {
		args = append(args, *filter.UnitType)
		conditions = append(conditions, fmt.Sprintf("unit_type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY unit_id ASC"

	var rows []unitRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	units := make([]*models.ResponseUnit, 0, len(rows))
	for i := range rows {
		units = append(units, rows[i].toModel())
	}
	return units, nil
}

func (r *unitRepository) ListAvailable(ctx context.Context, department *models.Department, unitType *models.UnitType) ([]*models.ResponseUnit, error) {
	status := models.UnitStatusAvailable
	return r.List(ctx, ports.UnitFilter{
		Department: department,
		UnitType:   unitType,
		Status:     &status,
	})
}

func (r *unitRepository) Reserve(ctx context.Context, unitID, emergencyID string) error {
	query := `
		UPDATE response_units
		SET status = $1, assigned_emergency = $2, last_updated = NOW()
		WHERE unit_id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		models.UnitStatusDispatched, emergencyID, unitID, models.UnitStatusAvailable)
	if err != nil {
		return fmt.Errorf("failed to reserve unit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserve result: %w", err)
	}
	if affected == 0 {
		if exists, eerr := r.exists(ctx, unitID); eerr == nil && !exists {
			return ports.ErrUnitNotFound
		}
		return ports.ErrUnitUnavailable
	}
	return nil
}

func (r *unitRepository) Release(ctx context.Context, unitID string) error {
	query := `
		UPDATE response_units
		SET status = $1, assigned_emergency = NULL, last_updated = NOW()
		WHERE unit_id = $2 AND status IN ($3, $4)
	`

	result, err := r.db.ExecContext(ctx, query,
		models.UnitStatusAvailable, unitID, models.UnitStatusDispatched, models.UnitStatusBusy)
	if err != nil {
		return fmt.Errorf("failed to release unit: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read release result: %w", err)
	}
	if affected == 0 {
		if exists, eerr := r.exists(ctx, unitID); eerr == nil && !exists {
			return ports.ErrUnitNotFound
		}
		return ports.ErrUnitStateConflict
	}
	return nil
}

func (r *unitRepository) SetStatus(ctx context.Context, unitID string, from, to models.UnitStatus) error {
	// The back-reference is meaningless once a unit leaves active duty
	query := `
		UPDATE response_units
		SET status = $1,
		    assigned_emergency = CASE WHEN $1 IN ($2, $3) THEN NULL ELSE assigned_emergency END,
		    last_updated = NOW()
		WHERE unit_id = $4 AND status = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		to, models.UnitStatusOffline, models.UnitStatusAvailable, unitID, from)
	if err != nil {
		return fmt.Errorf("failed to set unit status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read status update result: %w", err)
	}
	if affected == 0 {
		if exists, eerr := r.exists(ctx, unitID); eerr == nil && !exists {
			return ports.ErrUnitNotFound
		}
		return ports.ErrUnitStateConflict
	}
	return nil
}

func (r *unitRepository) exists(ctx context.Context, unitID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM response_units WHERE unit_id = $1`, unitID); err != nil {
		return false, err
	}
	return count > 0, nil
}
