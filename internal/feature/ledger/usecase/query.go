package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack_backend/internal/feature/ledger/domain/entity"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
	"fintrack_backend/internal/shared/apperror"
)

// reportedStatuses are the statuses whose amounts count towards a summary.
var reportedStatuses = []entity.Status{entity.StatusValidated, entity.StatusFinalized}

// Summary aggregates the ledger over a date range.
type Summary struct {
	StartDate     time.Time
	EndDate       time.Time
	TotalIncome   decimal.Decimal
	TotalExpense  decimal.Decimal
	NetBalance    decimal.Decimal
	CountByStatus map[entity.Status]int64
}

// GetByID returns one transaction.
func (u *LedgerUsecase) GetByID(ctx context.Context, id uint) (*entity.Transaction, error) {
	return u.repo.FindByID(ctx, id)
}

// ListAll returns every transaction.
func (u *LedgerUsecase) ListAll(ctx context.Context) ([]entity.Transaction, error) {
	return u.repo.List(ctx, TransactionFilter{})
}

// ListByStatus returns transactions in status.
func (u *LedgerUsecase) ListByStatus(ctx context.Context, status entity.Status) ([]entity.Transaction, error) {
	return u.repo.List(ctx, TransactionFilter{Status: &status})
}

// ListByType returns transactions of type t.
func (u *LedgerUsecase) ListByType(ctx context.Context, t entity.Type) ([]entity.Transaction, error) {
	return u.repo.List(ctx, TransactionFilter{Type: &t})
}

// ListByCategory returns transactions in category.
func (u *LedgerUsecase) ListByCategory(ctx context.Context, category entity.Category) ([]entity.Transaction, error) {
	return u.repo.List(ctx, TransactionFilter{Category: &category})
}

// ListByDateRange returns transactions dated within [start, end].
func (u *LedgerUsecase) ListByDateRange(ctx context.Context, start, end time.Time) ([]entity.Transaction, error) {
	from, to, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}
	return u.repo.List(ctx, TransactionFilter{From: &from, To: &to})
}

// ListMine returns the transactions created by the caller.
func (u *LedgerUsecase) ListMine(ctx context.Context, actorID uint) ([]entity.Transaction, error) {
	return u.repo.List(ctx, TransactionFilter{CreatedByID: &actorID})
}

// Summarize totals VALIDATED and FINALIZED amounts per type and counts every
// status within [start, end]. MANAGER or ADMIN only.
func (u *LedgerUsecase) Summarize(ctx context.Context, actorID uint, start, end time.Time) (*Summary, error) {
	if err := u.requireReviewer(ctx, actorID); err != nil {
		return nil, err
	}
	from, to, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}

	totals, err := u.repo.SumByType(ctx, from, to, reportedStatuses)
	if err != nil {
		return nil, err
	}
	counts, err := u.repo.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		StartDate:     from,
		EndDate:       to,
		TotalIncome:   totals[entity.TypeIncome].Round(2),
		TotalExpense:  totals[entity.TypeExpense].Round(2),
		CountByStatus: make(map[entity.Status]int64, len(entity.Statuses)),
	}
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	for _, st := range entity.Statuses {
		s.CountByStatus[st] = counts[st]
	}
	return s, nil
}

// ListSuspicious returns transactions dated within [start, end] whose amount
// exceeds threshold. MANAGER or ADMIN only.
func (u *LedgerUsecase) ListSuspicious(ctx context.Context, actorID uint, threshold decimal.Decimal, start, end time.Time) ([]entity.Transaction, error) {
	if err := u.requireReviewer(ctx, actorID); err != nil {
		return nil, err
	}
	if err := checkMagnitude("threshold", threshold); err != nil {
		return nil, err
	}
	if threshold.IsNegative() {
		return nil, apperror.BadRequest("threshold must not be negative")
	}
	from, to, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}
	return u.repo.List(ctx, TransactionFilter{From: &from, To: &to, AmountAbove: &threshold})
}

func (u *LedgerUsecase) requireReviewer(ctx context.Context, actorID uint) error {
	actor, err := u.actors.ResolveActor(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Role.In(userentity.RoleManager, userentity.RoleAdmin) {
		return ErrReportForbidden
	}
	return nil
}

func dateRange(start, end time.Time) (time.Time, time.Time, error) {
	from, to := entity.DateOf(start), entity.DateOf(end)
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperror.BadRequest("end date must not be before start date")
	}
	return from, to, nil
}
