// Package usecase implements the transaction ledger: creation, editing,
// the approval workflow and the reporting queries.
package usecase

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fintrack_backend/internal/feature/ledger/domain"
	"fintrack_backend/internal/feature/ledger/domain/entity"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/shared/apperror"
	"fintrack_backend/internal/shared/optional"
)

const (
	maxDescriptionLength = 500

	// Decimals outside these bounds are refused before any comparison rescales them.
	maxDecimalExponent = 20
	maxCoefficientBits = 128

	// auditEntityTransaction is the entity type recorded in audit entries for transactions.
	auditEntityTransaction = "Transaction"
)

var (
	minAmount = decimal.RequireFromString("0.01")
	// numeric(15,2) holds at most 13 integer digits.
	maxAmount = decimal.RequireFromString("9999999999999.99")
)

// TransactionFilter narrows List results. Nil fields do not filter.
type TransactionFilter struct {
	Status      *entity.Status
	Type        *entity.Type
	Category    *entity.Category
	CreatedByID *uint
	// From and To bound TransactionDate inclusively.
	From *time.Time
	To   *time.Time
	// AmountAbove keeps transactions whose amount is strictly greater.
	AmountAbove *decimal.Decimal
}

// TransactionRepository abstracts the persistence layer for transactions.
type TransactionRepository interface {
	// Create persists tx and assigns its id.
	Create(ctx context.Context, tx *entity.Transaction) error

	// FindByID returns the transaction with its users preloaded, or ErrTransactionNotFound.
	FindByID(ctx context.Context, id uint) (*entity.Transaction, error)

	// Update writes tx when the stored version still equals tx.Version and increments it.
	// It returns ErrConcurrentModification when no row matched.
	Update(ctx context.Context, tx *entity.Transaction) error

	// Delete hard-deletes the transaction. It returns ErrTransactionNotFound when nothing was deleted.
	Delete(ctx context.Context, id uint) error

	// List returns transactions matching filter ordered by id.
	List(ctx context.Context, filter TransactionFilter) ([]entity.Transaction, error)

	// SumByType totals amounts per type over transactions in statuses dated within [from, to].
	SumByType(ctx context.Context, from, to time.Time, statuses []entity.Status) (map[entity.Type]decimal.Decimal, error)

	// CountByStatus counts transactions dated within [from, to] per status.
	CountByStatus(ctx context.Context, from, to time.Time) (map[entity.Status]int64, error)
}

// ActorResolver loads the acting user and refuses deleted or deactivated accounts.
type ActorResolver interface {
	ResolveActor(ctx context.Context, actorID uint) (*userentity.User, error)
}

// AuditRecorder appends audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, actorID *uint, action, entityType string, entityID uint, details string) error
}

// TxManager runs fn inside a single storage transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreateTransactionInput carries the fields of a new transaction.
type CreateTransactionInput struct {
	Amount          decimal.Decimal
	Type            entity.Type
	Category        entity.Category
	Description     string
	TransactionDate time.Time
}

// UpdateTransactionInput carries a partial update. Absent fields are left untouched.
type UpdateTransactionInput struct {
	Amount          optional.Value[decimal.Decimal]
	Type            optional.Value[entity.Type]
	Category        optional.Value[entity.Category]
	Description     optional.Value[string]
	TransactionDate optional.Value[time.Time]
}

// LedgerUsecase implements the transaction ledger.
type LedgerUsecase struct {
	repo   TransactionRepository
	actors ActorResolver
	audit  AuditRecorder
	tx     TxManager
	now    func() time.Time
}

// NewLedgerUsecase creates a LedgerUsecase.
func NewLedgerUsecase(repo TransactionRepository, actors ActorResolver, audit AuditRecorder, tx TxManager) *LedgerUsecase {
	return &LedgerUsecase{
		repo:   repo,
		actors: actors,
		audit:  audit,
		tx:     tx,
		now:    time.Now,
	}
}

// Create records a new PENDING transaction owned by the actor.
func (u *LedgerUsecase) Create(ctx context.Context, actorID uint, in CreateTransactionInput) (*entity.Transaction, error) {
	var created *entity.Transaction
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, err := u.actors.ResolveActor(ctx, actorID)
		if err != nil {
			return err
		}
		if err := domain.AuthorizeRole(domain.ActionCreate, actor.Role); err != nil {
			return err
		}

		t := &entity.Transaction{
			Amount:          in.Amount,
			Type:            in.Type,
			Category:        in.Category,
			Status:          domain.Target(domain.ActionCreate),
			Description:     in.Description,
			TransactionDate: entity.DateOf(in.TransactionDate),
			CreatedByID:     actor.ID,
			Version:         1,
		}
		if err := u.validateFields(t); err != nil {
			return err
		}
		if err := u.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		details := fmt.Sprintf("Created %s transaction #%d: %s (%s)", t.Type, t.ID, t.Amount.StringFixed(2), t.Category)
		if err := u.record(ctx, actor.ID, domain.ActionCreate, t.ID, details); err != nil {
			return err
		}

		created, err = u.repo.FindByID(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies the present fields of in. The creator or an ADMIN may edit
// any transaction that is not FINALIZED.
func (u *LedgerUsecase) Update(ctx context.Context, actorID, id uint, in UpdateTransactionInput) (*entity.Transaction, error) {
	var updated *entity.Transaction
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, t, err := u.load(ctx, actorID, id, domain.ActionEdit)
		if err != nil {
			return err
		}

		in.Amount.Apply(&t.Amount)
		in.Type.Apply(&t.Type)
		in.Category.Apply(&t.Category)
		in.Description.Apply(&t.Description)
		if d, ok := in.TransactionDate.Get(); ok {
			t.TransactionDate = entity.DateOf(d)
		}
		if err := u.validateFields(t); err != nil {
			return err
		}
		if err := u.repo.Update(ctx, t); err != nil {
			return err
		}

		details := fmt.Sprintf("Updated transaction #%d: %s %s (%s)", t.ID, t.Type, t.Amount.StringFixed(2), t.Category)
		if err := u.record(ctx, actor.ID, domain.ActionEdit, t.ID, details); err != nil {
			return err
		}

		updated, err = u.repo.FindByID(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction in any status. ADMIN only.
// The audit entry is written before the row is removed.
func (u *LedgerUsecase) Delete(ctx context.Context, actorID, id uint) error {
	return u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, t, err := u.load(ctx, actorID, id, domain.ActionDelete)
		if err != nil {
			return err
		}

		details := fmt.Sprintf("Deleted %s transaction #%d: %s (%s)", t.Status, t.ID, t.Amount.StringFixed(2), t.Category)
		if err := u.record(ctx, actor.ID, domain.ActionDelete, t.ID, details); err != nil {
			return err
		}
		return u.repo.Delete(ctx, t.ID)
	})
}

// Validate moves a PENDING transaction to VALIDATED.
func (u *LedgerUsecase) Validate(ctx context.Context, actorID, id uint) (*entity.Transaction, error) {
	return u.transition(ctx, actorID, id, domain.ActionValidate, func(t *entity.Transaction, actor *userentity.User) {
		t.ValidatedByID = &actor.ID
	})
}

// Finalize moves a VALIDATED transaction to FINALIZED.
func (u *LedgerUsecase) Finalize(ctx context.Context, actorID, id uint) (*entity.Transaction, error) {
	return u.transition(ctx, actorID, id, domain.ActionFinalize, func(t *entity.Transaction, actor *userentity.User) {
		t.FinalizedByID = &actor.ID
	})
}

// Reject moves a PENDING or VALIDATED transaction to REJECTED.
func (u *LedgerUsecase) Reject(ctx context.Context, actorID, id uint) (*entity.Transaction, error) {
	return u.transition(ctx, actorID, id, domain.ActionReject, nil)
}

func (u *LedgerUsecase) transition(ctx context.Context, actorID, id uint, action domain.Action, effect func(*entity.Transaction, *userentity.User)) (*entity.Transaction, error) {
	var result *entity.Transaction
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		actor, t, err := u.load(ctx, actorID, id, action)
		if err != nil {
			return err
		}

		from := t.Status
		t.Status = domain.Target(action)
		if effect != nil {
			effect(t, actor)
		}
		if err := u.repo.Update(ctx, t); err != nil {
			return err
		}

		details := fmt.Sprintf("Transaction #%d moved from %s to %s", t.ID, from, t.Status)
		if err := u.record(ctx, actor.ID, action, t.ID, details); err != nil {
			return err
		}

		result, err = u.repo.FindByID(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// load resolves the actor and the transaction and applies the guards in order:
// role, then ownership, then source status.
func (u *LedgerUsecase) load(ctx context.Context, actorID, id uint, action domain.Action) (*userentity.User, *entity.Transaction, error) {
	actor, err := u.actors.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := domain.AuthorizeRole(action, actor.Role); err != nil {
		return nil, nil, err
	}
	t, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := domain.AuthorizeOn(action, actor, t); err != nil {
		return nil, nil, err
	}
	if err := domain.CheckSource(action, t); err != nil {
		return nil, nil, err
	}
	return actor, t, nil
}

func (u *LedgerUsecase) record(ctx context.Context, actorID uint, action domain.Action, id uint, details string) error {
	if err := u.audit.Record(ctx, &actorID, action.AuditName(), auditEntityTransaction, id, details); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// validateFields checks the editable fields of t.
func (u *LedgerUsecase) validateFields(t *entity.Transaction) error {
	if err := checkMagnitude("amount", t.Amount); err != nil {
		return err
	}
	switch {
	case t.Amount.LessThan(minAmount):
		return apperror.BadRequest("amount must be at least %s", minAmount.StringFixed(2))
	case t.Amount.GreaterThan(maxAmount):
		return apperror.BadRequest("amount must not exceed %s", maxAmount.StringFixed(2))
	case !t.Amount.Equal(t.Amount.Round(2)):
		return apperror.BadRequest("amount must have at most 2 decimal places")
	}
	if _, ok := entity.ParseType(string(t.Type)); !ok {
		return apperror.BadRequest("invalid transaction type: %q", t.Type)
	}
	if _, ok := entity.ParseCategory(string(t.Category)); !ok {
		return apperror.BadRequest("invalid category: %q", t.Category)
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLength {
		return apperror.BadRequest("description must be at most %d characters", maxDescriptionLength)
	}
	if t.TransactionDate.IsZero() {
		return apperror.BadRequest("transaction date is required")
	}
	if t.TransactionDate.After(entity.DateOf(u.now())) {
		return apperror.BadRequest("transaction date cannot be in the future")
	}
	return nil
}

// checkMagnitude rejects d by its exponent and coefficient size alone,
// without arithmetic on d.
func checkMagnitude(field string, d decimal.Decimal) error {
	exp := d.Exponent()
	switch {
	case exp > maxDecimalExponent && d.Sign() < 0:
		return apperror.BadRequest("%s must be at least %s", field, minAmount.StringFixed(2))
	case exp > maxDecimalExponent:
		return apperror.BadRequest("%s must not exceed %s", field, maxAmount.StringFixed(2))
	case exp < -maxDecimalExponent:
		return apperror.BadRequest("%s must have at most 2 decimal places", field)
	case d.Coefficient().BitLen() > maxCoefficientBits:
		return apperror.BadRequest("%s has too many digits", field)
	}
	return nil
}
