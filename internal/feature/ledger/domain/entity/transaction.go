// Package entity defines the ledger's transaction entity and its enumerations.
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	userentity "fintrack_backend/internal/feature/user/domain/entity"
)

// Type is the direction of a transaction.
type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

// Types lists every known Type.
var Types = []Type{TypeIncome, TypeExpense}

// Category classifies a transaction for reporting.
type Category string

const (
	CategorySalary    Category = "SALARY"
	CategorySales     Category = "SALES"
	CategoryOffice    Category = "OFFICE"
	CategoryRent      Category = "RENT"
	CategoryUtilities Category = "UTILITIES"
	CategoryTravel    Category = "TRAVEL"
	CategorySupplies  Category = "SUPPLIES"
	CategoryTaxes     Category = "TAXES"
	CategoryOther     Category = "OTHER"
)

// Categories lists every known Category.
var Categories = []Category{
	CategorySalary, CategorySales, CategoryOffice, CategoryRent, CategoryUtilities,
	CategoryTravel, CategorySupplies, CategoryTaxes, CategoryOther,
}

// Status is a position in the approval workflow.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusValidated Status = "VALIDATED"
	StatusFinalized Status = "FINALIZED"
	StatusRejected  Status = "REJECTED"
)

// Statuses lists every known Status.
var Statuses = []Status{StatusPending, StatusValidated, StatusFinalized, StatusRejected}

// ParseType returns the Type named s and whether it is known.
func ParseType(s string) (Type, bool) { return parse(Types, s) }

// ParseCategory returns the Category named s and whether it is known.
func ParseCategory(s string) (Category, bool) { return parse(Categories, s) }

// ParseStatus returns the Status named s and whether it is known.
func ParseStatus(s string) (Status, bool) { return parse(Statuses, s) }

func parse[T ~string](known []T, s string) (T, bool) {
	for _, k := range known {
		if string(k) == s {
			return k, true
		}
	}
	var zero T
	return zero, false
}

// Transaction is a monetary movement routed through the approval workflow.
type Transaction struct {
	ID uint `gorm:"primaryKey"`

	Amount   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Type     Type            `gorm:"column:transaction_type;size:20;not null;index"`
	Category Category        `gorm:"size:20;not null;index"`
	Status   Status          `gorm:"size:20;not null;index"`

	Description string `gorm:"size:500"`

	// TransactionDate is a calendar date held as UTC midnight.
	TransactionDate time.Time `gorm:"type:date;not null;index"`

	CreatedByID uint             `gorm:"not null;index"`
	CreatedBy   *userentity.User `gorm:"foreignKey:CreatedByID;constraint:OnDelete:RESTRICT"`

	// ValidatedByID is set once the transaction reaches VALIDATED.
	ValidatedByID *uint            `gorm:"index"`
	ValidatedBy   *userentity.User `gorm:"foreignKey:ValidatedByID;constraint:OnDelete:RESTRICT"`

	// FinalizedByID is set only when the transaction is FINALIZED.
	FinalizedByID *uint            `gorm:"index"`
	FinalizedBy   *userentity.User `gorm:"foreignKey:FinalizedByID;constraint:OnDelete:RESTRICT"`

	// Version increments on every update and guards concurrent writers.
	Version uint `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (Transaction) TableName() string {
	return "transactions"
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
