package di

import (
	"fmt"

	"gorm.io/gorm"

	auditentity "fintrack_backend/internal/feature/audit/domain/entity"
	ledgerentity "fintrack_backend/internal/feature/ledger/domain/entity"
	useradapters "fintrack_backend/internal/feature/user/adapters"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
)

// Migrate creates or updates every table the application owns.
// users must come first: sessions, audit_logs and transactions reference it.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userentity.User{},
		&useradapters.SessionModel{},
		&auditentity.AuditLog{},
		&ledgerentity.Transaction{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
