package memory

import (
	"context"

	"github.com/instanthelp/dispatch/internal/domain/ports"
)

// Adapter bundles the in-memory repositories behind the DatabaseAdapter
// interface. It is the default backend and the fixture for the test suites.
type Adapter struct {
	emergencies *EmergencyRepository
	units       *UnitRepository
	audit       *AuditRepository
	admins      *AdminRepository
}

// NewAdapter creates a new in-memory database adapter
func NewAdapter() *Adapter {
	return &Adapter{
		emergencies: NewEmergencyRepository(),
		units:       NewUnitRepository(),
		audit:       NewAuditRepository(),
		admins:      NewAdminRepository(),
	}
}

func (a *Adapter) Connect(ctx context.Context) error    { return nil }
func (a *Adapter) Disconnect(ctx context.Context) error { return nil }
func (a *Adapter) Ping(ctx context.Context) error       { return nil }

func (a *Adapter) GetType() ports.DatabaseType { return ports.DatabaseTypeMemory }

func (a *Adapter) EmergencyRepository() ports.EmergencyRepository { return a.emergencies }
func (a *Adapter) UnitRepository() ports.UnitRepository           { return a.units }
func (a *Adapter) AuditRepository() ports.AuditRepository         { return a.audit }
func (a *Adapter) AdminRepository() ports.AdminRepository         { return a.admins }
