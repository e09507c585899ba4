// Package di wires repositories, usecases and handlers into one object graph.
package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"fintrack_backend/internal/app/router"
	auditadapters "fintrack_backend/internal/feature/audit/adapters"
	audithandler "fintrack_backend/internal/feature/audit/transport/handler"
	auditusecase "fintrack_backend/internal/feature/audit/usecase"
	ledgeradapters "fintrack_backend/internal/feature/ledger/adapters"
	ledgerhandler "fintrack_backend/internal/feature/ledger/transport/handler"
	ledgerusecase "fintrack_backend/internal/feature/ledger/usecase"
	useradapters "fintrack_backend/internal/feature/user/adapters"
	userhandler "fintrack_backend/internal/feature/user/transport/handler"
	userusecase "fintrack_backend/internal/feature/user/usecase"
	platformdb "fintrack_backend/internal/platform/db"
	platformhandler "fintrack_backend/internal/platform/http/handler"
	jwtmw "fintrack_backend/internal/platform/jwt"
)

// Container holds the usecases shared by cmd/server and cmd/seed.
type Container struct {
	db       *gorm.DB
	Sessions SessionStore
	Users    *userusecase.UserUsecase
	Auth     *userusecase.AuthUsecase
	Audit    *auditusecase.AuditUsecase
	Ledger   *ledgerusecase.LedgerUsecase
}

// NewContainer builds the object graph. rdb may be nil, in which case
// sessions are kept in the relational store.
func NewContainer(db *gorm.DB, rdb *redis.Client, jwtCfg jwtmw.Config) *Container {
	tx := platformdb.NewTxManager(db)
	sessions := NewSessionRepository(rdb, db)
	userRepo := useradapters.NewUserGorm(db)
	txRepo := ledgeradapters.NewTransactionGorm(db)

	audit := auditusecase.NewAuditUsecase(auditadapters.NewAuditGorm(db), auditadapters.NewActorLookup(db))
	users := userusecase.NewUserUsecase(userRepo, txRepo, audit, tx, sessions)
	auth := userusecase.NewAuthUsecase(userRepo, jwtmw.NewGenerator(jwtCfg.Secret, jwtCfg.Expiration), sessions, userusecase.DefaultRefreshTTL)

	return &Container{
		db:       db,
		Sessions: sessions,
		Users:    users,
		Auth:     auth,
		Audit:    audit,
		Ledger:   ledgerusecase.NewLedgerUsecase(txRepo, users, audit, tx),
	}
}

// Handlers returns the HTTP handlers for router.NewRouter.
func (c *Container) Handlers() (router.Handlers, error) {
	sqlDB, err := c.db.DB()
	if err != nil {
		return router.Handlers{}, err
	}
	return router.Handlers{
		Health:       platformhandler.NewHealthHandler(sqlDB),
		Auth:         userhandler.NewAuthHandler(c.Auth),
		Users:        userhandler.NewUserHandler(c.Users),
		Transactions: ledgerhandler.NewTransactionHandler(c.Ledger),
		Audit:        audithandler.NewAuditHandler(c.Audit),
	}, nil
}
