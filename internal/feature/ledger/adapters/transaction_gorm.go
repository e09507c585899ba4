// Package adapters provides the GORM repository for ledger transactions.
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fintrack_backend/internal/feature/ledger/domain/entity"
	"fintrack_backend/internal/feature/ledger/usecase"
	"fintrack_backend/internal/platform/db"
)

// transactionGorm is the GORM implementation of TransactionRepository.
type transactionGorm struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.TransactionRepository = (*transactionGorm)(nil)

// NewTransactionGorm creates a transactionGorm over db.
func NewTransactionGorm(db *gorm.DB) *transactionGorm {
	return &transactionGorm{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// withUsers preloads the creator, validator and finalizer.
func withUsers(q *gorm.DB) *gorm.DB {
	return q.Preload("CreatedBy").Preload("ValidatedBy").Preload("FinalizedBy")
}

// Create inserts t without writing its associated users.
func (r *transactionGorm) Create(ctx context.Context, t *entity.Transaction) error {
	return db.Conn(ctx, r.db).Omit(clause.Associations).Create(t).Error
}

// FindByID returns the transaction with id.
func (r *transactionGorm) FindByID(ctx context.Context, id uint) (*entity.Transaction, error) {
	var t entity.Transaction
	if err := withUsers(db.Conn(ctx, r.db)).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update writes the mutable columns only if the stored version still equals t.Version.
func (r *transactionGorm) Update(ctx context.Context, t *entity.Transaction) error {
	now := r.now()
	result := db.Conn(ctx, r.db).
		Model(&entity.Transaction{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]any{
			"amount":           t.Amount,
			"transaction_type": t.Type,
			"category":         t.Category,
			"status":           t.Status,
			"description":      t.Description,
			"transaction_date": t.TransactionDate,
			"validated_by_id":  t.ValidatedByID,
			"finalized_by_id":  t.FinalizedByID,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrConcurrentModification
	}
	t.Version++
	t.UpdatedAt = now
	return nil
}

// Delete hard-deletes the transaction.
func (r *transactionGorm) Delete(ctx context.Context, id uint) error {
	result := db.Conn(ctx, r.db).Delete(&entity.Transaction{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrTransactionNotFound
	}
	return nil
}

// List returns transactions matching filter in ID order.
func (r *transactionGorm) List(ctx context.Context, f usecase.TransactionFilter) ([]entity.Transaction, error) {
	q := withUsers(db.Conn(ctx, r.db)).Model(&entity.Transaction{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Type != nil {
		q = q.Where("transaction_type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.CreatedByID != nil {
		q = q.Where("created_by_id = ?", *f.CreatedByID)
	}
	if f.From != nil {
		q = q.Where("transaction_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("transaction_date <= ?", *f.To)
	}
	if f.AmountAbove != nil {
		q = q.Where("amount > ?", *f.AmountAbove)
	}

	txs := make([]entity.Transaction, 0)
	if err := q.Order("id ASC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// SumByType totals amounts per type. Types with no rows are absent from the map.
func (r *transactionGorm) SumByType(ctx context.Context, from, to time.Time, statuses []entity.Status) (map[entity.Type]decimal.Decimal, error) {
	var rows []struct {
		Type  entity.Type
		Total decimal.NullDecimal
	}
	err := db.Conn(ctx, r.db).
		Model(&entity.Transaction{}).
		Select("transaction_type AS type, SUM(amount) AS total").
		Where("status IN ?", statuses).
		Where("transaction_date BETWEEN ? AND ?", from, to).
		Group("transaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[entity.Type]decimal.Decimal, len(rows))
	for _, row := range rows {
		if row.Total.Valid {
			totals[row.Type] = row.Total.Decimal
		}
	}
	return totals, nil
}

// CountByStatus counts transactions per status.
func (r *transactionGorm) CountByStatus(ctx context.Context, from, to time.Time) (map[entity.Status]int64, error) {
	var rows []struct {
		Status entity.Status
		Count  int64
	}
	err := db.Conn(ctx, r.db).
		Model(&entity.Transaction{}).
		Select("status, COUNT(*) AS count").
		Where("transaction_date BETWEEN ? AND ?", from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountReferencesToUser counts transactions naming userID as creator, validator or finalizer.
func (r *transactionGorm) CountReferencesToUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := db.Conn(ctx, r.db).
		Model(&entity.Transaction{}).
		Where("created_by_id = ? OR validated_by_id = ? OR finalized_by_id = ?", userID, userID, userID).
		Count(&count).Error
	return count, err
}
