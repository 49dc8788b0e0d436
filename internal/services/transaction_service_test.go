package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikBulygin/financeTracker/internal/core"
	"github.com/NikBulygin/financeTracker/internal/log"
	"github.com/NikBulygin/financeTracker/internal/storage/memory"
)

const testIdentity = "user@example.com"

func newTestService(t *testing.T) *TransactionService {
	t.Helper()
	store := memory.New("1.0.0", "test")
	return NewTransactionService(store, log.New(log.DefaultConfig()))
}

func draft() core.Draft {
	return core.Draft{
		Type:     core.TypeExpense,
		Amount:   decimal.NewFromInt(100),
		Date:     time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Category: "food",
		Currency: "USD",
	}
}

func TestAdd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tx, err := svc.Add(ctx, testIdentity, draft())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.HasPrefix(tx.ID, "tx_") {
		t.Errorf("id = %q, want tx_ prefix", tx.ID)
	}
	if tx.Status != core.StatusCompleted {
		t.Errorf("status = %q, want completed for unplanned", tx.Status)
	}
	if tx.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	txs, err := svc.List(ctx, testIdentity)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != tx.ID {
		t.Errorf("List = %+v, want the added transaction", txs)
	}
}

func TestAddPlanned(t *testing.T) {
	svc := newTestService(t)

	d := draft()
	d.IsPlanned = true
	tx, err := svc.Add(context.Background(), testIdentity, d)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tx.Status != core.StatusPending {
		t.Errorf("status = %q, want pending for planned", tx.Status)
	}
}

func TestAddPlannedInvestment(t *testing.T) {
	svc := newTestService(t)

	d := draft()
	d.Type = core.TypeInvestment
	d.IsPlanned = true
	tx, err := svc.Add(context.Background(), testIdentity, d)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tx.IsPlanned {
		t.Error("planned investment should be coerced to settled")
	}
	if tx.Status != core.StatusCompleted {
		t.Errorf("status = %q, want completed", tx.Status)
	}
}

func TestAddInvalidDraft(t *testing.T) {
	svc := newTestService(t)

	d := draft()
	d.Amount = decimal.Zero
	if _, err := svc.Add(context.Background(), testIdentity, d); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
	txs, _ := svc.List(context.Background(), testIdentity)
	if len(txs) != 0 {
		t.Errorf("invalid draft must not be stored, got %d rows", len(txs))
	}
}

func TestUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tx, err := svc.Add(ctx, testIdentity, draft())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	t.Run("patches only set fields", func(t *testing.T) {
		amount := decimal.NewFromInt(250)
		got, err := svc.Update(ctx, testIdentity, tx.ID, Patch{Amount: &amount})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !got.Amount.Equal(amount) {
			t.Errorf("amount = %v, want 250", got.Amount)
		}
		if got.Category != tx.Category {
			t.Errorf("category = %q, changed by unrelated patch", got.Category)
		}
	})

	t.Run("id is immutable, created_at preserved", func(t *testing.T) {
		desc := "groceries"
		got, err := svc.Update(ctx, testIdentity, tx.ID, Patch{Description: &desc})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.ID != tx.ID {
			t.Errorf("id = %q, want %q", got.ID, tx.ID)
		}
		if !got.CreatedAt.Equal(tx.CreatedAt) {
			t.Errorf("created_at = %v, want original %v", got.CreatedAt, tx.CreatedAt)
		}
	})

	t.Run("settling clears the planned flag", func(t *testing.T) {
		d := draft()
		d.IsPlanned = true
		planned, err := svc.Add(ctx, testIdentity, d)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}

		status := core.StatusCompleted
		got, err := svc.Update(ctx, testIdentity, planned.ID, Patch{Status: &status})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.IsPlanned {
			t.Error("planned flag survived settlement")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := svc.Update(ctx, testIdentity, "tx_missing", Patch{}); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tx, err := svc.Add(ctx, testIdentity, draft())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed, err := svc.Delete(ctx, testIdentity, tx.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v, want true, nil", removed, err)
	}
	if txs, _ := svc.List(ctx, testIdentity); len(txs) != 0 {
		t.Errorf("transaction still listed after delete")
	}

	removed, err = svc.Delete(ctx, testIdentity, tx.ID)
	if err != nil || removed {
		t.Errorf("second Delete = %v, %v, want false, nil", removed, err)
	}
}

func TestListPlanned(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	now := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	add := func(t *testing.T, day int, planned bool) core.Transaction {
		t.Helper()
		d := draft()
		d.Date = time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC)
		d.IsPlanned = planned
		tx, err := svc.Add(ctx, testIdentity, d)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		return tx
	}

	add(t, 9, true) // in the past, excluded
	second := add(t, 15, true)
	later := add(t, 20, true)
	add(t, 25, false) // settled, excluded
	first := add(t, 12, true)

	t.Run("window and ordering", func(t *testing.T) {
		got, err := svc.ListPlanned(ctx, testIdentity, 7)
		if err != nil {
			t.Fatalf("ListPlanned: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2 within 7 days", len(got))
		}
		if got[0].ID != first.ID || got[1].ID != second.ID {
			t.Errorf("order = %s, %s, want ascending by date", got[0].ID, got[1].ID)
		}
	})

	t.Run("settled plans drop out", func(t *testing.T) {
		status := core.StatusCompleted
		if _, err := svc.Update(ctx, testIdentity, second.ID, Patch{Status: &status}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := svc.ListPlanned(ctx, testIdentity, 14)
		if err != nil {
			t.Fatalf("ListPlanned: %v", err)
		}
		for _, tx := range got {
			if tx.ID == second.ID {
				t.Error("settled plan still listed")
			}
		}
		if len(got) != 2 || got[1].ID != later.ID {
			t.Errorf("got %+v, want the two remaining pending plans", got)
		}
	})
}

func TestCategories(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, c := range []struct {
		category string
		txType   core.Type
	}{
		{"rent", core.TypeExpense},
		{"food", core.TypeExpense},
		{"food", core.TypeExpense},
		{"salary", core.TypeIncome},
	} {
		d := draft()
		d.Category = c.category
		d.Type = c.txType
		if _, err := svc.Add(ctx, testIdentity, d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got, err := svc.Categories(ctx, testIdentity, core.TypeExpense)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	want := []string{"food", "rent"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Categories = %v, want %v", got, want)
	}

	all, err := svc.Categories(ctx, testIdentity, "")
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered Categories = %v, want 3 distinct", all)
	}
}

func TestFilter(t *testing.T) {
	date := func(day int) time.Time {
		return time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC)
	}
	txs := []core.Transaction{
		{ID: "a", Type: core.TypeExpense, Category: "food", Description: "Lunch at cafe", Date: date(5)},
		{ID: "b", Type: core.TypeExpense, Category: "rent", Description: "January rent", Date: date(1)},
		{ID: "c", Type: core.TypeIncome, Category: "salary", Description: "", Date: date(25)},
		{ID: "d", Type: core.TypeExpense, Category: "food", Description: "Groceries", Date: date(20), IsPlanned: true},
	}

	ids := func(got []core.Transaction) string {
		var b strings.Builder
		for _, tx := range got {
			b.WriteString(tx.ID)
		}
		return b.String()
	}

	start := date(2)
	end := date(21)
	planned := true

	tests := []struct {
		name     string
		criteria FilterCriteria
		want     string
	}{
		{"no criteria", FilterCriteria{}, "abcd"},
		{"by type", FilterCriteria{Type: core.TypeIncome}, "c"},
		{"by category", FilterCriteria{Category: "food"}, "ad"},
		{"date range inclusive", FilterCriteria{StartDate: &start, EndDate: &end}, "ad"},
		{"planned only", FilterCriteria{IsPlanned: &planned}, "d"},
		{"search is case-insensitive", FilterCriteria{Search: "LUNCH"}, "a"},
		{"search covers category", FilterCriteria{Search: "sal"}, "c"},
		{"combined", FilterCriteria{Type: core.TypeExpense, Search: "rent"}, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Filter(txs, tt.criteria)); got != tt.want {
				t.Errorf("Filter = %q, want %q", got, tt.want)
			}
		})
	}
}
