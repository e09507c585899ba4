package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditadapters "fintrack_backend/internal/feature/audit/adapters"
	auditentity "fintrack_backend/internal/feature/audit/domain/entity"
	auditusecase "fintrack_backend/internal/feature/audit/usecase"
	"fintrack_backend/internal/feature/ledger/adapters"
	"fintrack_backend/internal/feature/ledger/domain/entity"
	"fintrack_backend/internal/feature/ledger/usecase"
	useradapters "fintrack_backend/internal/feature/user/adapters"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
	userusecase "fintrack_backend/internal/feature/user/usecase"
	"fintrack_backend/internal/platform/db"
	"fintrack_backend/internal/shared/apperror"
	"fintrack_backend/internal/shared/optional"
)

type stack struct {
	gdb    *gorm.DB
	ledger *usecase.LedgerUsecase
	users  *userusecase.UserUsecase
	audit  *auditusecase.AuditUsecase
	ids    map[userentity.Role]uint
}

// recorder lets a test make the audit write fail after it was attempted.
type recorder struct {
	inner usecase.AuditRecorder
	fail  error
}

func (r *recorder) Record(ctx context.Context, actorID *uint, action, entityType string, entityID uint, details string) error {
	if err := r.inner.Record(ctx, actorID, action, entityType, entityID, details); err != nil {
		return err
	}
	return r.fail
}

// racingRepo bumps the stored version right before each update, as a concurrent writer would.
type racingRepo struct {
	usecase.TransactionRepository
	gdb *gorm.DB
}

func (r *racingRepo) Update(ctx context.Context, t *entity.Transaction) error {
	if err := db.Conn(ctx, r.gdb).Exec("UPDATE transactions SET version = version + 1 WHERE id = ?", t.ID).Error; err != nil {
		return err
	}
	return r.TransactionRepository.Update(ctx, t)
}

func newStack(t *testing.T, wrapAudit func(usecase.AuditRecorder) usecase.AuditRecorder) *stack {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&userentity.User{}, &useradapters.SessionModel{}, &auditentity.AuditLog{}, &entity.Transaction{}))

	txm := db.NewTxManager(gdb)
	txRepo := adapters.NewTransactionGorm(gdb)
	audit := auditusecase.NewAuditUsecase(auditadapters.NewAuditGorm(gdb), auditadapters.NewActorLookup(gdb))
	users := userusecase.NewUserUsecase(useradapters.NewUserGorm(gdb), txRepo, audit, txm, useradapters.NewSessionGorm(gdb))

	var rec usecase.AuditRecorder = audit
	if wrapAudit != nil {
		rec = wrapAudit(audit)
	}
	s := &stack{
		gdb:    gdb,
		ledger: usecase.NewLedgerUsecase(txRepo, users, rec, txm),
		users:  users,
		audit:  audit,
		ids:    map[userentity.Role]uint{},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	for _, role := range userentity.Roles {
		u := &userentity.User{
			Email: string(role) + "@example.com", FirstName: "Test", LastName: string(role),
			Role: role, Password: string(hash), IsActive: true,
		}
		require.NoError(t, gdb.Create(u).Error)
		s.ids[role] = u.ID
	}
	return s
}

func (s *stack) auditActions(t *testing.T, id uint) []string {
	t.Helper()
	logs, err := s.audit.ByEntity(context.Background(), "Transaction", id)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		actions = append(actions, logs[i].Action)
	}
	return actions
}

func newInput() usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		Amount:          decimal.RequireFromString("100.00"),
		Type:            entity.TypeExpense,
		Category:        entity.CategoryOffice,
		TransactionDate: time.Now(),
	}
}

func TestLedger_ApprovalScenario(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	ctx := context.Background()
	comptable, manager, admin := s.ids[userentity.RoleComptable], s.ids[userentity.RoleManager], s.ids[userentity.RoleAdmin]

	created, err := s.ledger.Create(ctx, comptable, newInput())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, created.Status)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, comptable, created.CreatedBy.ID)

	validated, err := s.ledger.Validate(ctx, manager, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusValidated, validated.Status)
	require.NotNil(t, validated.ValidatedBy)
	assert.Equal(t, manager, validated.ValidatedBy.ID)

	_, err = s.ledger.Finalize(ctx, comptable, created.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	finalized, err := s.ledger.Finalize(ctx, admin, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinalized, finalized.Status)
	require.NotNil(t, finalized.FinalizedBy)
	assert.Equal(t, admin, finalized.FinalizedBy.ID)
	assert.Equal(t, uint(3), finalized.Version)

	_, err = s.ledger.Update(ctx, comptable, created.ID, usecase.UpdateTransactionInput{Description: optional.Of("too late")})
	assert.True(t, apperror.IsKind(err, apperror.KindBadRequest))

	assert.Equal(t, []string{"CREATE_TRANSACTION", "VALIDATE_TRANSACTION", "FINALIZE_TRANSACTION"}, s.auditActions(t, created.ID))

	require.NoError(t, s.ledger.Delete(ctx, admin, created.ID))
	_, err = s.ledger.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, usecase.ErrTransactionNotFound)
	assert.Equal(t, []string{"CREATE_TRANSACTION", "VALIDATE_TRANSACTION", "FINALIZE_TRANSACTION", "DELETE_TRANSACTION"}, s.auditActions(t, created.ID))
}

func TestLedger_AuditFailureRollsBack(t *testing.T) {
	t.Parallel()

	auditErr := errors.New("audit store unavailable")
	var rec *recorder
	s := newStack(t, func(inner usecase.AuditRecorder) usecase.AuditRecorder {
		rec = &recorder{inner: inner}
		return rec
	})
	ctx := context.Background()
	comptable, manager := s.ids[userentity.RoleComptable], s.ids[userentity.RoleManager]

	created, err := s.ledger.Create(ctx, comptable, newInput())
	require.NoError(t, err)

	rec.fail = auditErr
	_, err = s.ledger.Validate(ctx, manager, created.ID)
	assert.ErrorIs(t, err, auditErr)

	got, err := s.ledger.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Nil(t, got.ValidatedByID)
	assert.Equal(t, uint(1), got.Version)
	assert.Equal(t, []string{"CREATE_TRANSACTION"}, s.auditActions(t, created.ID))

	_, err = s.ledger.Create(ctx, comptable, newInput())
	assert.ErrorIs(t, err, auditErr)
	all, err := s.ledger.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLedger_ConcurrentModification(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	s.ledger = usecase.NewLedgerUsecase(&racingRepo{TransactionRepository: adapters.NewTransactionGorm(s.gdb), gdb: s.gdb}, s.users, s.audit, db.NewTxManager(s.gdb))
	ctx := context.Background()

	created, err := s.ledger.Create(ctx, s.ids[userentity.RoleComptable], newInput())
	require.NoError(t, err)

	_, err = s.ledger.Validate(ctx, s.ids[userentity.RoleManager], created.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.ErrorIs(t, err, usecase.ErrConcurrentModification)

	got, err := s.ledger.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Equal(t, uint(1), got.Version)
	assert.Equal(t, []string{"CREATE_TRANSACTION"}, s.auditActions(t, created.ID))
}

func TestLedger_OtherComptableCannotEdit(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	ctx := context.Background()

	other, err := s.users.CreateUser(ctx, s.ids[userentity.RoleAdmin], userusecase.CreateUserInput{
		Email: "b@example.com", Password: "password123", FirstName: "Other", LastName: "Comptable", Role: userentity.RoleComptable,
	})
	require.NoError(t, err)

	created, err := s.ledger.Create(ctx, s.ids[userentity.RoleComptable], newInput())
	require.NoError(t, err)

	_, err = s.ledger.Update(ctx, other.ID, created.ID, usecase.UpdateTransactionInput{Amount: optional.Of(decimal.NewFromInt(5))})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestLedger_ReferencedUserCannotBeDeleted(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	ctx := context.Background()
	comptable := s.ids[userentity.RoleComptable]

	_, err := s.ledger.Create(ctx, comptable, newInput())
	require.NoError(t, err)

	err = s.users.Delete(ctx, s.ids[userentity.RoleAdmin], comptable)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = s.users.FindByID(ctx, comptable)
	assert.NoError(t, err)
}

func TestLedger_DeactivatedActorIsRefused(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	ctx := context.Background()
	manager := s.ids[userentity.RoleManager]

	created, err := s.ledger.Create(ctx, s.ids[userentity.RoleComptable], newInput())
	require.NoError(t, err)
	require.NoError(t, s.users.Deactivate(ctx, s.ids[userentity.RoleAdmin], manager))

	_, err = s.ledger.Validate(ctx, manager, created.ID)
	assert.ErrorIs(t, err, userusecase.ErrActorUnavailable)
}

func TestLedger_SummaryCountsApprovedAmountsOnly(t *testing.T) {
	t.Parallel()

	s := newStack(t, nil)
	ctx := context.Background()
	comptable, manager, admin := s.ids[userentity.RoleComptable], s.ids[userentity.RoleManager], s.ids[userentity.RoleAdmin]

	mk := func(amount string, typ entity.Type) uint {
		in := newInput()
		in.Amount = decimal.RequireFromString(amount)
		in.Type = typ
		created, err := s.ledger.Create(ctx, comptable, in)
		require.NoError(t, err)
		return created.ID
	}

	validated := mk("300.00", entity.TypeIncome)
	_, err := s.ledger.Validate(ctx, manager, validated)
	require.NoError(t, err)

	finalized := mk("45.50", entity.TypeExpense)
	_, err = s.ledger.Validate(ctx, manager, finalized)
	require.NoError(t, err)
	_, err = s.ledger.Finalize(ctx, admin, finalized)
	require.NoError(t, err)

	mk("1000.00", entity.TypeIncome) // stays pending
	rejected := mk("80.00", entity.TypeExpense)
	_, err = s.ledger.Reject(ctx, manager, rejected)
	require.NoError(t, err)

	today := time.Now()
	summary, err := s.ledger.Summarize(ctx, manager, today.AddDate(0, 0, -1), today)
	require.NoError(t, err)
	assert.Equal(t, "300.00", summary.TotalIncome.StringFixed(2))
	assert.Equal(t, "45.50", summary.TotalExpense.StringFixed(2))
	assert.Equal(t, "254.50", summary.NetBalance.StringFixed(2))
	assert.Equal(t, int64(1), summary.CountByStatus[entity.StatusPending])
	assert.Equal(t, int64(1), summary.CountByStatus[entity.StatusValidated])
	assert.Equal(t, int64(1), summary.CountByStatus[entity.StatusFinalized])
	assert.Equal(t, int64(1), summary.CountByStatus[entity.StatusRejected])

	suspicious, err := s.ledger.ListSuspicious(ctx, admin, decimal.NewFromInt(299), today.AddDate(0, 0, -1), today)
	require.NoError(t, err)
	require.Len(t, suspicious, 2)
	assert.True(t, decimal.NewFromInt(300).Equal(suspicious[0].Amount))
	assert.True(t, decimal.NewFromInt(1000).Equal(suspicious[1].Amount))
}
