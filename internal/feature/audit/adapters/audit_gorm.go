// Package adapters provides the GORM repository for audit logs.
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fintrack_backend/internal/feature/audit/domain/entity"
	"fintrack_backend/internal/feature/audit/usecase"
	"fintrack_backend/internal/platform/db"
)

// newestFirst orders by creation time, breaking ties by id.
const newestFirst = "created_at DESC, id DESC"

// auditGorm is the GORM implementation of AuditRepository.
// Writes join the caller's transaction.
type auditGorm struct {
	db *gorm.DB
}

var _ usecase.AuditRepository = (*auditGorm)(nil)

// NewAuditGorm creates an auditGorm over db.
func NewAuditGorm(db *gorm.DB) *auditGorm {
	return &auditGorm{db: db}
}

// Create appends log.
func (r *auditGorm) Create(ctx context.Context, log *entity.AuditLog) error {
	return db.Conn(ctx, r.db).Create(log).Error
}

func (r *auditGorm) ListByUser(ctx context.Context, userID uint) ([]entity.AuditLog, error) {
	return r.find(db.Conn(ctx, r.db).Where("user_id = ?", userID))
}

func (r *auditGorm) ListByEntity(ctx context.Context, entityType string, entityID uint) ([]entity.AuditLog, error) {
	return r.find(db.Conn(ctx, r.db).Where("entity_type = ? AND entity_id = ?", entityType, entityID))
}

func (r *auditGorm) ListByAction(ctx context.Context, action string) ([]entity.AuditLog, error) {
	return r.find(db.Conn(ctx, r.db).Where("action = ?", action))
}

func (r *auditGorm) ListByTimeRange(ctx context.Context, start, end time.Time) ([]entity.AuditLog, error) {
	return r.find(db.Conn(ctx, r.db).Where("created_at BETWEEN ? AND ?", start, end))
}

func (r *auditGorm) ListRecent(ctx context.Context, limit int) ([]entity.AuditLog, error) {
	return r.find(db.Conn(ctx, r.db).Limit(limit))
}

func (r *auditGorm) find(q *gorm.DB) ([]entity.AuditLog, error) {
	logs := make([]entity.AuditLog, 0)
	if err := q.Order(newestFirst).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// actorLookup checks the users table directly so the audit feature
// does not depend on the user feature's packages.
type actorLookup struct {
	db *gorm.DB
}

var _ usecase.ActorLookup = (*actorLookup)(nil)

// NewActorLookup creates an ActorLookup over the users table.
func NewActorLookup(db *gorm.DB) *actorLookup {
	return &actorLookup{db: db}
}

// ActorExists returns usecase.ErrActorNotFound when no user has userID.
func (l *actorLookup) ActorExists(ctx context.Context, userID uint) error {
	var count int64
	if err := db.Conn(ctx, l.db).Table("users").Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return usecase.ErrActorNotFound
	}
	return nil
}
