// Package entity defines the domain entities for the user feature.
package entity

import "time"

// Role is a user's permission level.
type Role string

const (
	// RoleAdmin manages users and finalizes or deletes transactions.
	RoleAdmin Role = "ADMIN"
	// RoleManager validates and rejects transactions.
	RoleManager Role = "MANAGER"
	// RoleComptable (accountant) records transactions.
	RoleComptable Role = "COMPTABLE"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleManager, RoleComptable}

// ParseRole returns the Role named s and whether it is known.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, x := range roles {
		if r == x {
			return true
		}
	}
	return false
}

// User represents a staff account.
type User struct {
	// ID is assigned by storage on creation and never changes.
	ID uint `gorm:"primaryKey"`

	// Email is unique across all users and compared case-sensitively.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	FirstName string `gorm:"size:100;not null"`
	LastName  string `gorm:"size:100;not null"`

	Role Role `gorm:"size:20;not null;index"`

	// Password is the bcrypt hash. It never leaves the service.
	Password string `gorm:"size:255;not null"`

	IsActive bool `gorm:"not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}
