// Package dto defines the request and response bodies of the ledger HTTP API.
package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"fintrack_backend/internal/feature/ledger/domain/entity"
	"fintrack_backend/internal/feature/ledger/usecase"
	userentity "fintrack_backend/internal/feature/user/domain/entity"
	userdto "fintrack_backend/internal/feature/user/transport/http/dto"
	"fintrack_backend/internal/shared/apperror"
	"fintrack_backend/internal/shared/optional"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// CreateTransactionReq is the body of POST /api/transactions.
type CreateTransactionReq struct {
	Amount          *decimal.Decimal `json:"amount" binding:"required"`
	TransactionType string           `json:"transactionType" binding:"required"`
	Category        string           `json:"category" binding:"required"`
	Description     string           `json:"description" binding:"max=500"`
	TransactionDate string           `json:"transactionDate" binding:"required"`
}

// ToInput converts the request to a usecase input.
func (r CreateTransactionReq) ToInput() (usecase.CreateTransactionInput, error) {
	typ, err := ParseType(r.TransactionType)
	if err != nil {
		return usecase.CreateTransactionInput{}, err
	}
	category, err := ParseCategory(r.Category)
	if err != nil {
		return usecase.CreateTransactionInput{}, err
	}
	date, err := ParseDate(r.TransactionDate)
	if err != nil {
		return usecase.CreateTransactionInput{}, err
	}
	return usecase.CreateTransactionInput{
		Amount:          *r.Amount,
		Type:            typ,
		Category:        category,
		Description:     r.Description,
		TransactionDate: date,
	}, nil
}

// UpdateTransactionReq is the body of PUT /api/transactions/:id.
// Omitted or null fields are left unchanged.
type UpdateTransactionReq struct {
	Amount          optional.Value[decimal.Decimal] `json:"amount"`
	TransactionType optional.Value[string]          `json:"transactionType"`
	Category        optional.Value[string]          `json:"category"`
	Description     optional.Value[string]          `json:"description"`
	TransactionDate optional.Value[string]          `json:"transactionDate"`
}

// ToInput converts the request to a usecase input.
func (r UpdateTransactionReq) ToInput() (usecase.UpdateTransactionInput, error) {
	typ, err := optional.Map(r.TransactionType, ParseType)
	if err != nil {
		return usecase.UpdateTransactionInput{}, err
	}
	category, err := optional.Map(r.Category, ParseCategory)
	if err != nil {
		return usecase.UpdateTransactionInput{}, err
	}
	date, err := optional.Map(r.TransactionDate, ParseDate)
	if err != nil {
		return usecase.UpdateTransactionInput{}, err
	}
	return usecase.UpdateTransactionInput{
		Amount:          r.Amount,
		Type:            typ,
		Category:        category,
		Description:     r.Description,
		TransactionDate: date,
	}, nil
}

// ParseType parses a transaction type, failing with BadRequest.
func ParseType(s string) (entity.Type, error) {
	t, ok := entity.ParseType(s)
	if !ok {
		return "", apperror.BadRequest("unknown transaction type %q", s)
	}
	return t, nil
}

// ParseCategory parses a category, failing with BadRequest.
func ParseCategory(s string) (entity.Category, error) {
	c, ok := entity.ParseCategory(s)
	if !ok {
		return "", apperror.BadRequest("unknown category %q", s)
	}
	return c, nil
}

// ParseStatus parses a status, failing with BadRequest.
func ParseStatus(s string) (entity.Status, error) {
	st, ok := entity.ParseStatus(s)
	if !ok {
		return "", apperror.BadRequest("unknown status %q", s)
	}
	return st, nil
}

// ParseDate parses a YYYY-MM-DD date, failing with BadRequest.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperror.BadRequest("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// TransactionRes is the external projection of a transaction.
type TransactionRes struct {
	ID              uint             `json:"id"`
	Amount          json.Number      `json:"amount"`
	TransactionType string           `json:"transactionType"`
	Category        string           `json:"category"`
	Status          string           `json:"status"`
	Description     string           `json:"description"`
	TransactionDate string           `json:"transactionDate"`
	CreatedBy       *userdto.UserRes `json:"createdBy"`
	ValidatedBy     *userdto.UserRes `json:"validatedBy"`
	FinalizedBy     *userdto.UserRes `json:"finalizedBy"`
	Version         uint             `json:"version"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// FromTransaction builds the projection of t.
func FromTransaction(t *entity.Transaction) TransactionRes {
	return TransactionRes{
		ID:              t.ID,
		Amount:          money(t.Amount),
		TransactionType: string(t.Type),
		Category:        string(t.Category),
		Status:          string(t.Status),
		Description:     t.Description,
		TransactionDate: t.TransactionDate.UTC().Format(DateLayout),
		CreatedBy:       userRef(t.CreatedBy),
		ValidatedBy:     userRef(t.ValidatedBy),
		FinalizedBy:     userRef(t.FinalizedBy),
		Version:         t.Version,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// FromTransactions builds projections of txs. The result is never nil.
func FromTransactions(txs []entity.Transaction) []TransactionRes {
	out := make([]TransactionRes, 0, len(txs))
	for i := range txs {
		out = append(out, FromTransaction(&txs[i]))
	}
	return out
}

// SummaryRes is the external projection of a ledger summary.
type SummaryRes struct {
	StartDate     string           `json:"startDate"`
	EndDate       string           `json:"endDate"`
	TotalIncome   json.Number      `json:"totalIncome"`
	TotalExpense  json.Number      `json:"totalExpense"`
	NetBalance    json.Number      `json:"netBalance"`
	CountByStatus map[string]int64 `json:"countByStatus"`
}

// FromSummary builds the projection of s.
func FromSummary(s *usecase.Summary) SummaryRes {
	counts := make(map[string]int64, len(s.CountByStatus))
	for status, n := range s.CountByStatus {
		counts[string(status)] = n
	}
	return SummaryRes{
		StartDate:     s.StartDate.Format(DateLayout),
		EndDate:       s.EndDate.Format(DateLayout),
		TotalIncome:   money(s.TotalIncome),
		TotalExpense:  money(s.TotalExpense),
		NetBalance:    money(s.NetBalance),
		CountByStatus: counts,
	}
}

// money renders d with two decimals as a bare JSON number.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func userRef(u *userentity.User) *userdto.UserRes {
	if u == nil {
		return nil
	}
	res := userdto.FromUser(u)
	return &res
}
