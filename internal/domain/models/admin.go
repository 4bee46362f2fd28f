package models

import (
	"errors"
	"time"
)

// Admin is a department operator account. It exists to stamp audit entries
// and authorize manual status changes; authentication itself is handled by
// the fronting API layer.
type Admin struct {
	ID         int64      `json:"id" bson:"id" db:"id"`
	Username   string     `json:"username" bson:"username" db:"username"`
	Password   string     `json:"-" bson:"password" db:"password"` // bcrypt hash
	Name       string     `json:"name" bson:"name" db:"name"`
	Department Department `json:"department" bson:"department" db:"department"`
	Phone      *string    `json:"phone,omitempty" bson:"phone,omitempty" db:"phone"`
	Email      *string    `json:"email,omitempty" bson:"email,omitempty" db:"email"`
	IsActive   bool       `json:"is_active" bson:"is_active" db:"is_active"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at" db:"created_at"`
}

var ErrInvalidAdminDepartment = errors.New("invalid admin department")

// ValidateAdminDepartment checks the departments an operator account may
// belong to. multi and pending are emergency-side values only.
func ValidateAdminDepartment(d Department) error {
	switch d {
	case DepartmentPolice, DepartmentMedical, DepartmentFire, DepartmentSuperadmin:
		return nil
	default:
		return ErrInvalidAdminDepartment
	}
}
