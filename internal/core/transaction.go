// Package core holds the transaction domain model: typed transactions, their
// status lifecycle, validation, and the mapping to and from table records.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Type classifies a transaction.
	Type string

	// Status is the settlement state of a transaction.
	Status string
)

const (
	TypeIncome     Type = "income"
	TypeExpense    Type = "expense"
	TypeInvestment Type = "investment"
	TypeCrypto     Type = "crypto"

	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// DateLayout is the day-granularity layout transaction dates are stored in.
const DateLayout = "2006-01-02"

var (
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidDate   = errors.New("date cannot be zero")
	ErrNotFound      = errors.New("transaction not found")
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeInvestment, TypeCrypto:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Transaction is one stored operation, exclusively owned by the identity
// whose table it lives in.
type Transaction struct {
	ID          string
	Type        Type
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Description string
	IsPlanned   bool
	Status      Status

	// Exchange sub-fields, set only for investment transactions that
	// represent an asset exchange.
	FromAsset    string
	ToAsset      string
	ExchangeRate decimal.NullDecimal

	// Currency of Amount; empty means the user's default currency.
	Currency string
	// USD-normalized snapshot of Amount captured at write time.
	AmountUSD decimal.NullDecimal

	CreatedAt time.Time
}

// Draft is the user-supplied part of a transaction, before the repository
// assigns identity and derives status.
type Draft struct {
	Type         Type
	Amount       decimal.Decimal
	Date         time.Time
	Category     string
	Description  string
	IsPlanned    bool
	FromAsset    string
	ToAsset      string
	ExchangeRate decimal.NullDecimal
	Currency     string
	AmountUSD    decimal.NullDecimal
}

// Validate rejects drafts that must not reach the store.
func (d Draft) Validate() error {
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if d.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DeriveStatus returns the creation-time status for a planned flag:
// pending for planned transactions, completed otherwise.
func DeriveStatus(isPlanned bool) Status {
	if isPlanned {
		return StatusPending
	}
	return StatusCompleted
}
