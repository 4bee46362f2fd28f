package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/jmoiron/sqlx"
)

// emergencyRepository implements the EmergencyRepository interface using PostgreSQL
type emergencyRepository struct {
	db *sqlx.DB
}

// NewEmergencyRepository creates a new PostgreSQL emergency repository
func NewEmergencyRepository(db *sqlx.DB) ports.EmergencyRepository {
	return &emergencyRepository{db: db}
}

type emergencyRow struct {
	ID            int64     `db:"id"`
	EmergencyID   string    `db:"emergency_id"`
	UserName      string    `db:"user_name"`
	MobileNumber  string    `db:"mobile_number"`
	Latitude      float64   `db:"latitude"`
	Longitude     float64   `db:"longitude"`
	Accuracy      *float64  `db:"accuracy"`
	Address       *string   `db:"address"`
	EmergencyType string    `db:"emergency_type"`
	Description   *string   `db:"description"`
	Severity      string    `db:"severity"`
	Status        string    `db:"status"`
	Department    string    `db:"department"`
	AssignedUnits []byte    `db:"assigned_units"`
	ResponseTime  *int64    `db:"response_time"`
	Version       int64     `db:"version"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

const emergencyColumns = `id, emergency_id, user_name, mobile_number, latitude, longitude, accuracy,
	address, emergency_type, description, severity, status, department, assigned_units,
	response_time, version, created_at, updated_at`

func (row *emergencyRow) toModel() (*models.Emergency, error) {
	var units []models.UnitAssignment
	if len(row.AssignedUnits) > 0 {
		if err := json.Unmarshal(row.AssignedUnits, &units); err != nil {
			return nil, fmt.Errorf("failed to decode assigned units: %w", err)
		}
	}
	if units == nil {
		units = []models.UnitAssignment{}
	}

	return &models.Emergency{
		ID:           row.ID,
		EmergencyID:  row.EmergencyID,
		UserName:     row.UserName,
		MobileNumber: row.MobileNumber,
		Location: models.Location{
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Accuracy:  row.Accuracy,
		},
		Address:       row.Address,
		EmergencyType: models.EmergencyType(row.EmergencyType),
		Description:   row.Description,
		Severity:      models.Severity(row.Severity),
		Status:        models.EmergencyStatus(row.Status),
		Department:    models.Department(row.Department),
		AssignedUnits: units,
		ResponseTime:  row.ResponseTime,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func (r *emergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	unitsJSON, err := json.Marshal(emergency.AssignedUnits)
	if err != nil {
		return fmt.Errorf("failed to encode assigned units: %w", err)
	}

	emergency.Version = 1

	query := `
		INSERT INTO emergencies (
			emergency_id, user_name, mobile_number, latitude, longitude, accuracy,
			address, emergency_type, description, severity, status, department,
			assigned_units, response_time, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	err = r.db.QueryRowxContext(ctx, query,
		emergency.EmergencyID, emergency.UserName, emergency.MobileNumber,
		emergency.Location.Latitude, emergency.Location.Longitude, emergency.Location.Accuracy,
		emergency.Address, emergency.EmergencyType, emergency.Description,
		emergency.Severity, emergency.Status, emergency.Department,
		unitsJSON, emergency.ResponseTime, emergency.Version,
		emergency.CreatedAt, emergency.UpdatedAt,
	).Scan(&emergency.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ports.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create emergency: %w", err)
	}
	return nil
}

func (r *emergencyRepository) GetByEmergencyID(ctx context.Context, emergencyID string) (*models.Emergency, error) {
	query := `SELECT ` + emergencyColumns + ` FROM emergencies WHERE emergency_id = $1`

	var row emergencyRow
	if err := r.db.GetContext(ctx, &row, query, emergencyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrEmergencyNotFound
		}
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}
	return row.toModel()
}

func (r *emergencyRepository) List(ctx context.Context, filter ports.EmergencyFilter, offset, limit int) ([]*models.Emergency, error) {
	query := `SELECT ` + emergencyColumns + ` FROM emergencies`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at ASC, emergency_id ASC"
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []emergencyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list emergencies: %w", err)
	}

	emergencies := make([]*models.Emergency, 0, len(rows))
	for i := range rows {
		emergency, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		emergencies = append(emergencies, emergency)
	}
	return emergencies, nil
}

// Update stores the mutable fields guarded by the optimistic version check
func (r *emergencyRepository) Update(ctx context.Context, emergency *models.Emergency) error {
	unitsJSON, err := json.Marshal(emergency.AssignedUnits)
	if err != nil {
		return fmt.Errorf("failed to encode assigned units: %w", err)
	}

	query := `
		UPDATE emergencies
		SET status = $1, department = $2, assigned_units = $3, response_time = $4,
		    version = version + 1, updated_at = $5
		WHERE emergency_id = $6 AND version = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		emergency.Status, emergency.Department, unitsJSON, emergency.ResponseTime,
		emergency.UpdatedAt, emergency.EmergencyID, emergency.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update emergency: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		var count int
		if cerr := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM emergencies WHERE emergency_id = $1`, emergency.EmergencyID); cerr == nil && count == 0 {
			return ports.ErrEmergencyNotFound
		}
		return ports.ErrVersionConflict
	}

	emergency.Version++
	return nil
}

func (r *emergencyRepository) Remove(ctx context.Context, emergencyID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM emergencies WHERE emergency_id = $1`, emergencyID)
	if err != nil {
		return fmt.Errorf("failed to remove emergency: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ports.ErrEmergencyNotFound
	}
	return nil
}
