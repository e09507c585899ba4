package di

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	useradapters "fintrack_backend/internal/feature/user/adapters"
	"fintrack_backend/internal/feature/user/usecase"
	"fintrack_backend/internal/platform/session"
)

// SessionStore is a SessionRepository that can also purge expired sessions.
type SessionStore interface {
	usecase.SessionRepository
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewSessionRepository creates a SessionStore implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the relational store.
func NewSessionRepository(rdb *redis.Client, db *gorm.DB) SessionStore {
	if rdb != nil {
		return session.NewSessionRedis(rdb, session.DefaultPrefix)
	}
	return useradapters.NewSessionGorm(db)
}
