package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/feature/user/usecase"
	"fintrack_backend/internal/platform/db"
)

// sessionGorm stores refresh sessions in the relational database.
// It is used when Redis is not configured.
type sessionGorm struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.SessionRepository = (*sessionGorm)(nil)

// NewSessionGorm creates a new instance of sessionGorm.
func NewSessionGorm(db *gorm.DB) *sessionGorm {
	return &sessionGorm{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create persists a new session.
func (r *sessionGorm) Create(ctx context.Context, session *entity.Session) error {
	return db.Conn(ctx, r.db).Create(sessionModelFromEntity(session)).Error
}

// FindByID retrieves a session by its refresh token.
func (r *sessionGorm) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var model SessionModel
	if err := db.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return model.toEntity(), nil
}

// Revoke marks a session as revoked. Revoking twice keeps the first timestamp.
func (r *sessionGorm) Revoke(ctx context.Context, id string) error {
	result := db.Conn(ctx, r.db).
		Model(&SessionModel{}).
		Where("id = ?", id).
		Update("revoked_at", gorm.Expr("COALESCE(revoked_at, ?)", r.now()))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// RevokeAllByUserID revokes every live session of a user.
func (r *sessionGorm) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return db.Conn(ctx, r.db).
		Model(&SessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", r.now()).Error
}

// CountByUserID returns the number of active sessions for a user.
func (r *sessionGorm) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.active(ctx, userID).Model(&SessionModel{}).Count(&count).Error
	return count, err
}

// DeleteOldestByUserID deletes the oldest active session for a user.
func (r *sessionGorm) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	var oldest SessionModel
	if err := r.active(ctx, userID).Order("created_at ASC").First(&oldest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return db.Conn(ctx, r.db).Delete(&SessionModel{}, "id = ?", oldest.ID).Error
}

// DeleteExpired removes expired sessions and returns how many were removed.
func (r *sessionGorm) DeleteExpired(ctx context.Context) (int64, error) {
	result := db.Conn(ctx, r.db).Where("expires_at < ?", r.now()).Delete(&SessionModel{})
	return result.RowsAffected, result.Error
}

func (r *sessionGorm) active(ctx context.Context, userID uint) *gorm.DB {
	return db.Conn(ctx, r.db).Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, r.now())
}
