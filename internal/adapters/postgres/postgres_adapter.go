package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresAdapter implements the DatabaseAdapter interface for PostgreSQL
type PostgresAdapter struct {
	db            *sqlx.DB
	config        *ports.PostgresConfig
	emergencyRepo ports.EmergencyRepository
	unitRepo      ports.UnitRepository
	auditRepo     ports.AuditRepository
	adminRepo     ports.AdminRepository
}

// NewPostgresAdapter creates a new PostgreSQL database adapter
func NewPostgresAdapter(config *ports.PostgresConfig) *PostgresAdapter {
	return &PostgresAdapter{
		config: config,
	}
}

// Connect establishes a connection to the PostgreSQL database
func (a *PostgresAdapter) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		a.config.Host,
		a.config.Port,
		a.config.User,
		a.config.Password,
		a.config.Database,
		a.config.SSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(a.config.MaxOpenConns)
	db.SetMaxIdleConns(a.config.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(a.config.ConnMaxLifetime) * time.Second)

	a.db = db

	// Apply pending schema migrations
	if err := NewMigrator(db).Migrate(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Initialize repositories
	a.emergencyRepo = NewEmergencyRepository(db)
	a.unitRepo = NewUnitRepository(db)
	a.auditRepo = NewAuditRepository(db)
	a.adminRepo = NewAdminRepository(db)

	return nil
}

// Disconnect closes the database connection
func (a *PostgresAdapter) Disconnect(ctx context.Context) error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (a *PostgresAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("database not connected")
	}
	return a.db.PingContext(ctx)
}

// GetType returns the database type
func (a *PostgresAdapter) GetType() ports.DatabaseType {
	return ports.DatabaseTypePostgreSQL
}

// EmergencyRepository returns the emergency repository
func (a *PostgresAdapter) EmergencyRepository() ports.EmergencyRepository {
	return a.emergencyRepo
}

// UnitRepository returns the unit repository
func (a *PostgresAdapter) UnitRepository() ports.UnitRepository {
	return a.unitRepo
}

// AuditRepository returns the audit repository
func (a *PostgresAdapter) AuditRepository() ports.AuditRepository {
	return a.auditRepo
}

// AdminRepository returns the admin repository
func (a *PostgresAdapter) AdminRepository() ports.AdminRepository {
	return a.adminRepo
}
