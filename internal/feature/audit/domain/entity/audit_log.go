// Package entity defines the audit log entity.
package entity

import "time"

// AuditLog is one append-only record of a mutation.
type AuditLog struct {
	ID uint `gorm:"primaryKey"`

	// UserID is the acting user, or nil for system actions and actors that no longer exist.
	UserID *uint `gorm:"index"`

	Action     string `gorm:"size:50;not null;index"`
	EntityType string `gorm:"size:50;not null;index:idx_audit_entity"`
	EntityID   uint   `gorm:"not null;index:idx_audit_entity"`
	Details    string `gorm:"type:text"`
	IPAddress  string `gorm:"size:45"`

	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
