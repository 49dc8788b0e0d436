package core

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikBulygin/financeTracker/internal/table"
)

// TransactionHeaders is the column set of the transactions table. Appending
// here grows the schema without rewriting existing rows.
var TransactionHeaders = []string{
	"id",
	"type",
	"amount",
	"date",
	"category",
	"description",
	"is_planned",
	"status",
	"from_asset",
	"to_asset",
	"exchange_rate",
	"currency",
	"amount_usd",
	"created_at",
}

// FromRecord parses a table record into a Transaction, applying a default
// for every field: missing amount is zero, missing status derives from the
// planned flag. Records without an id are not transactions; ok is false.
func FromRecord(r table.Record) (Transaction, bool) {
	id := r["id"]
	if id == "" {
		return Transaction{}, false
	}

	tx := Transaction{
		ID:          id,
		Type:        TypeExpense,
		Category:    r["category"],
		Description: r["description"],
		IsPlanned:   r["is_planned"] == "true",
		FromAsset:   r["from_asset"],
		ToAsset:     r["to_asset"],
		Currency:    r["currency"],
	}
	if t := Type(r["type"]); t.Valid() {
		tx.Type = t
	}
	if amt, err := decimal.NewFromString(r["amount"]); err == nil {
		tx.Amount = amt
	}
	if s := Status(r["status"]); s.Valid() {
		tx.Status = s
	} else {
		tx.Status = DeriveStatus(tx.IsPlanned)
	}
	if d, err := time.Parse(DateLayout, r["date"]); err == nil {
		tx.Date = d
	}
	if c, err := time.Parse(time.RFC3339, r["created_at"]); err == nil {
		tx.CreatedAt = c
	}
	if v, err := decimal.NewFromString(r["exchange_rate"]); err == nil {
		tx.ExchangeRate = decimal.NewNullDecimal(v)
	}
	if v, err := decimal.NewFromString(r["amount_usd"]); err == nil {
		tx.AmountUSD = decimal.NewNullDecimal(v)
	}
	return tx, true
}

// ToRecord is the inverse of FromRecord. Optional fields that are absent
// stay null in the record.
func (tx Transaction) ToRecord() table.Record {
	r := table.Record{
		"id":          tx.ID,
		"type":        string(tx.Type),
		"amount":      tx.Amount.String(),
		"category":    tx.Category,
		"description": tx.Description,
		"is_planned":  boolCell(tx.IsPlanned),
		"status":      string(tx.Status),
	}
	if !tx.Date.IsZero() {
		r["date"] = tx.Date.Format(DateLayout)
	}
	if !tx.CreatedAt.IsZero() {
		r["created_at"] = tx.CreatedAt.UTC().Format(time.RFC3339)
	}
	if tx.FromAsset != "" {
		r["from_asset"] = tx.FromAsset
	}
	if tx.ToAsset != "" {
		r["to_asset"] = tx.ToAsset
	}
	if tx.ExchangeRate.Valid {
		r["exchange_rate"] = tx.ExchangeRate.Decimal.String()
	}
	if tx.Currency != "" {
		r["currency"] = tx.Currency
	}
	if tx.AmountUSD.Valid {
		r["amount_usd"] = tx.AmountUSD.Decimal.String()
	}
	return r
}

// Normalize enforces cross-field invariants: investments are never planned,
// and exchange sub-fields only exist on investments.
func (tx *Transaction) Normalize() {
	if tx.Type == TypeInvestment && tx.IsPlanned {
		tx.IsPlanned = false
		tx.Status = StatusCompleted
	}
	if tx.Type != TypeInvestment {
		tx.FromAsset = ""
		tx.ToAsset = ""
		tx.ExchangeRate = decimal.NullDecimal{}
	}
}

func boolCell(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
