package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fintrack_backend/internal/feature/audit/domain/entity"
	"fintrack_backend/internal/feature/audit/usecase"
	"fintrack_backend/internal/platform/db"
)

// usersTable stands in for the user feature's table in these tests.
type usersTable struct {
	ID    uint `gorm:"primaryKey"`
	Email string
}

func (usersTable) TableName() string { return "users" }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&entity.AuditLog{}, &usersTable{}))
	return gdb
}

func seedLogs(t *testing.T, repo *auditGorm, base time.Time) {
	t.Helper()

	one, two := uint(1), uint(2)
	logs := []entity.AuditLog{
		{UserID: &one, Action: "CREATE_TRANSACTION", EntityType: "Transaction", EntityID: 10, CreatedAt: base},
		{UserID: &two, Action: "VALIDATE_TRANSACTION", EntityType: "Transaction", EntityID: 10, CreatedAt: base.Add(time.Hour)},
		{UserID: &one, Action: "CREATE_USER", EntityType: "User", EntityID: 5, CreatedAt: base.Add(2 * time.Hour)},
		{UserID: nil, Action: "BOOTSTRAP_ADMIN", EntityType: "User", EntityID: 1, CreatedAt: base.Add(3 * time.Hour)},
	}
	for i := range logs {
		require.NoError(t, repo.Create(context.Background(), &logs[i]))
	}
}

func TestAuditGorm_Queries(t *testing.T) {
	t.Parallel()

	repo := NewAuditGorm(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	seedLogs(t, repo, base)

	byUser, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "CREATE_USER", byUser[0].Action, "newest first")

	byEntity, err := repo.ListByEntity(ctx, "Transaction", 10)
	require.NoError(t, err)
	require.Len(t, byEntity, 2)
	assert.Equal(t, "VALIDATE_TRANSACTION", byEntity[0].Action)

	byAction, err := repo.ListByAction(ctx, "BOOTSTRAP_ADMIN")
	require.NoError(t, err)
	require.Len(t, byAction, 1)
	assert.Nil(t, byAction[0].UserID)

	inRange, err := repo.ListByTimeRange(ctx, base.Add(30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	recent, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "BOOTSTRAP_ADMIN", recent[0].Action)

	none, err := repo.ListByAction(ctx, "NOTHING")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAuditGorm_RollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	gdb := setupTestDB(t)
	repo := NewAuditGorm(gdb)
	tm := db.NewTxManager(gdb)

	err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := repo.Create(ctx, &entity.AuditLog{Action: "CREATE_USER", EntityType: "User", EntityID: 1, CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return usecase.ErrActorNotFound
	})
	assert.ErrorIs(t, err, usecase.ErrActorNotFound)

	recent, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestActorLookup(t *testing.T) {
	t.Parallel()

	gdb := setupTestDB(t)
	require.NoError(t, gdb.Create(&usersTable{ID: 7, Email: "a@example.com"}).Error)
	lookup := NewActorLookup(gdb)

	assert.NoError(t, lookup.ActorExists(context.Background(), 7))
	assert.ErrorIs(t, lookup.ActorExists(context.Background(), 8), usecase.ErrActorNotFound)
}
