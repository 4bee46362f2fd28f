package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/instanthelp/dispatch/internal/domain/models"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"golang.org/x/crypto/bcrypt"
)

type seedAdmin struct {
	Username   string
	Password   string
	Name       string
	Department models.Department
	Phone      string
	Email      string
}

var defaultAdmins = []seedAdmin{
	{
		Username:   "superadmin",
		Password:   "admin123",
		Name:       "Super Administrator",
		Department: models.DepartmentSuperadmin,
		Phone:      "+911234567890",
		Email:      "superadmin@instanthelp.com",
	},
	{
		Username:   "police_admin",
		Password:   "police123",
		Name:       "Police Department Admin",
		Department: models.DepartmentPolice,
		Phone:      "+911234567891",
		Email:      "police@instanthelp.com",
	},
	{
		Username:   "medical_admin",
		Password:   "medical123",
		Name:       "Medical Department Admin",
		Department: models.DepartmentMedical,
		Phone:      "+911234567892",
		Email:      "medical@instanthelp.com",
	},
	{
		Username:   "fire_admin",
		Password:   "fire123",
		Name:       "Fire Department Admin",
		Department: models.DepartmentFire,
		Phone:      "+911234567893",
		Email:      "fire@instanthelp.com",
	},
}

var defaultUnits = []models.ResponseUnit{
	{
		UnitID:          "AMB001",
		UnitName:        "Ambulance 1",
		UnitType:        models.UnitTypeAmbulance,
		Department:      models.DepartmentMedical,
		CurrentLocation: models.Location{Latitude: 20.2961, Longitude: 85.8245},
		Status:          models.UnitStatusAvailable,
	},
	{
		UnitID:          "POL001",
		UnitName:        "Police Car 1",
		UnitType:        models.UnitTypePoliceCar,
		Department:      models.DepartmentPolice,
		CurrentLocation: models.Location{Latitude: 20.2961, Longitude: 85.8245},
		Status:          models.UnitStatusAvailable,
	},
	{
		UnitID:          "FIR001",
		UnitName:        "Fire Truck 1",
		UnitType:        models.UnitTypeFireTruck,
		Department:      models.DepartmentFire,
		CurrentLocation: models.Location{Latitude: 20.2961, Longitude: 85.8245},
		Status:          models.UnitStatusAvailable,
	},
}

// Seed provisions the default operator accounts and response units. It is
// idempotent: records are inserted only if absent, so it is safe to run at
// every process start.
func (s *dispatchService) Seed(ctx context.Context) error {
	for _, a := range defaultAdmins {
		if _, err := s.admins.GetByUsername(ctx, a.Username); err == nil {
			continue
		} else if !errors.Is(err, ports.ErrAdminNotFound) {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed credential: %w", err)
		}
		phone, email := a.Phone, a.Email
		admin := &models.Admin{
			Username:   a.Username,
			Password:   string(hash),
			Name:       a.Name,
			Department: a.Department,
			Phone:      &phone,
			Email:      &email,
			IsActive:   true,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.admins.Create(ctx, admin); err != nil && !errors.Is(err, ports.ErrAlreadyExists) {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		s.logger.Infow("Seeded admin account", "username", a.Username, "department", a.Department)
	}

	for _, u := range defaultUnits {
		if _, err := s.units.GetByUnitID(ctx, u.UnitID); err == nil {
			continue
		} else if !errors.Is(err, ports.ErrUnitNotFound) {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}

		unit := u
		unit.LastUpdated = time.Now().UTC()
		if err := unit.Validate(); err != nil {
			return err
		}
		if err := s.units.Create(ctx, &unit); err != nil && !errors.Is(err, ports.ErrAlreadyExists) {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		s.logger.Infow("Seeded response unit", "unit_id", u.UnitID, "unit_type", u.UnitType)
	}

	return nil
}
