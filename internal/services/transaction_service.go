// Package services orchestrates the domain operations: transaction CRUD over
// the table store, and the sync session reconciling the local table with the
// remote mirror.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NikBulygin/financeTracker/internal/core"
	"github.com/NikBulygin/financeTracker/internal/log"
	"github.com/NikBulygin/financeTracker/internal/storage"
)

// TransactionService is the domain-typed repository over the table store.
type TransactionService struct {
	store  storage.TableStore
	logger *log.Logger
	now    func() time.Time
	newID  func(time.Time) string
}

func NewTransactionService(store storage.TableStore, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:  store,
		logger: logger.WithComponent(log.ComponentTransactions),
		now:    time.Now,
		newID:  newTxID,
	}
}

// newTxID builds a time-ordered unique token: millisecond timestamp plus a
// random suffix.
func newTxID(now time.Time) string {
	return fmt.Sprintf("tx_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

// List returns every transaction in the identity's table, coerced with
// defaults. Rows without an id are skipped.
func (s *TransactionService) List(ctx context.Context, identity string) ([]core.Transaction, error) {
	t, err := s.store.Get(ctx, identity, core.TransactionHeaders)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		if tx, ok := core.FromRecord(row); ok {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

// Add validates the draft, assigns identity and creation time, derives the
// status from the planned flag, and appends the row. Planned investments are
// coerced to settled before the status is derived.
func (s *TransactionService) Add(ctx context.Context, identity string, draft core.Draft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate draft: %w", err)
	}

	now := s.now()
	tx := core.Transaction{
		ID:           s.newID(now),
		Type:         draft.Type,
		Amount:       draft.Amount,
		Date:         draft.Date,
		Category:     draft.Category,
		Description:  draft.Description,
		IsPlanned:    draft.IsPlanned,
		FromAsset:    draft.FromAsset,
		ToAsset:      draft.ToAsset,
		ExchangeRate: draft.ExchangeRate,
		Currency:     draft.Currency,
		AmountUSD:    draft.AmountUSD,
		CreatedAt:    now.UTC(),
	}
	tx.Normalize()
	tx.Status = core.DeriveStatus(tx.IsPlanned)

	t, err := s.store.Get(ctx, identity, core.TransactionHeaders)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	t.Rows = append(t.Rows, tx.ToRecord())
	if err := s.store.Save(ctx, identity, t); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction added",
		log.FieldIdentity, identity,
		log.FieldTxID, tx.ID,
		log.FieldTxType, string(tx.Type),
		log.FieldAmount, tx.Amount.String())
	return tx, nil
}

// Patch carries a partial update; nil fields are left untouched. ID and
// CreatedAt are not patchable.
type Patch struct {
	Type         *core.Type
	Amount       *decimal.Decimal
	Date         *time.Time
	Category     *string
	Description  *string
	IsPlanned    *bool
	Status       *core.Status
	FromAsset    *string
	ToAsset      *string
	ExchangeRate *decimal.NullDecimal
	Currency     *string
	AmountUSD    *decimal.NullDecimal
}

func (p Patch) apply(tx *core.Transaction) {
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	if p.IsPlanned != nil {
		tx.IsPlanned = *p.IsPlanned
	}
	if p.Status != nil {
		tx.Status = *p.Status
		// Settling or rejecting a planned payment ends its planned life.
		if tx.IsPlanned && *p.Status != core.StatusPending {
			tx.IsPlanned = false
		}
	}
	if p.FromAsset != nil {
		tx.FromAsset = *p.FromAsset
	}
	if p.ToAsset != nil {
		tx.ToAsset = *p.ToAsset
	}
	if p.ExchangeRate != nil {
		tx.ExchangeRate = *p.ExchangeRate
	}
	if p.Currency != nil {
		tx.Currency = *p.Currency
	}
	if p.AmountUSD != nil {
		tx.AmountUSD = *p.AmountUSD
	}
}

// Update merges the patch onto the stored row and persists. Returns
// core.ErrNotFound when no row carries the id.
func (s *TransactionService) Update(ctx context.Context, identity, id string, patch Patch) (core.Transaction, error) {
	t, err := s.store.Get(ctx, identity, core.TransactionHeaders)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	for i, row := range t.Rows {
		if row["id"] != id {
			continue
		}
		tx, ok := core.FromRecord(row)
		if !ok {
			continue
		}
		patch.apply(&tx)
		tx.Normalize()
		tx.ID = id // immutable
		t.Rows[i] = tx.ToRecord()

		if err := s.store.Save(ctx, identity, t); err != nil {
			return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
		}
		s.logger.InfoContext(ctx, "transaction updated",
			log.FieldIdentity, identity, log.FieldTxID, id)
		return tx, nil
	}
	return core.Transaction{}, core.ErrNotFound
}

// Delete removes the row with the given id. Reports whether a row was
// removed.
func (s *TransactionService) Delete(ctx context.Context, identity, id string) (bool, error) {
	t, err := s.store.Get(ctx, identity, core.TransactionHeaders)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}

	for i, row := range t.Rows {
		if row["id"] != id {
			continue
		}
		t.Rows = append(t.Rows[:i], t.Rows[i+1:]...)
		if err := s.store.Save(ctx, identity, t); err != nil {
			return false, fmt.Errorf("delete transaction: %w", err)
		}
		s.logger.InfoContext(ctx, "transaction deleted",
			log.FieldIdentity, identity, log.FieldTxID, id)
		return true, nil
	}
	return false, nil
}

// ListPlanned returns pending transactions dated within (now, now+days],
// sorted ascending by date.
func (s *TransactionService) ListPlanned(ctx context.Context, identity string, days int) ([]core.Transaction, error) {
	txs, err := s.List(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	horizon := now.Add(time.Duration(days) * 24 * time.Hour)

	var out []core.Transaction
	for _, tx := range txs {
		if tx.Status != core.StatusPending {
			continue
		}
		if !tx.Date.After(now) || tx.Date.After(horizon) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Categories returns the distinct categories in use, optionally restricted
// to one transaction type, sorted alphabetically.
func (s *TransactionService) Categories(ctx context.Context, identity string, typeFilter core.Type) ([]string, error) {
	txs, err := s.List(ctx, identity)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, tx := range txs {
		if typeFilter != "" && tx.Type != typeFilter {
			continue
		}
		if tx.Category == "" {
			continue
		}
		seen[tx.Category] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// FilterCriteria are optional AND-combined predicates for Filter.
type FilterCriteria struct {
	Type      core.Type  // "" admits all types
	Category  string     // "" admits all categories
	StartDate *time.Time // inclusive lower bound
	EndDate   *time.Time // inclusive upper bound
	IsPlanned *bool
	Search    string // case-insensitive substring over description/category
}

// Filter applies the criteria to an already-loaded transaction slice.
func Filter(txs []core.Transaction, criteria FilterCriteria) []core.Transaction {
	search := strings.ToLower(criteria.Search)

	var out []core.Transaction
	for _, tx := range txs {
		if criteria.Type != "" && tx.Type != criteria.Type {
			continue
		}
		if criteria.Category != "" && tx.Category != criteria.Category {
			continue
		}
		if criteria.IsPlanned != nil && tx.IsPlanned != *criteria.IsPlanned {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Description), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) {
			continue
		}
		if criteria.StartDate != nil && tx.Date.Before(*criteria.StartDate) {
			continue
		}
		if criteria.EndDate != nil && tx.Date.After(*criteria.EndDate) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
