// Package analytics aggregates transactions into time and category buckets,
// normalized to a single display currency.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikBulygin/financeTracker/internal/core"
)

// CurrencyConverter is the slice of the rates converter the engine needs.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal
}

// Engine computes aggregations over a transaction set. It is stateless; the
// caller passes transactions and a reference time on every call.
type Engine struct {
	conv            CurrencyConverter
	defaultCurrency string
}

func NewEngine(conv CurrencyConverter, defaultCurrency string) *Engine {
	if defaultCurrency == "" {
		defaultCurrency = core.CurrencyUSD
	}
	return &Engine{conv: conv, defaultCurrency: defaultCurrency}
}

// MonthOptions controls the GroupByMonth window.
type MonthOptions struct {
	// Span is the window size in months.
	Span int
	// IncludePlanned admits still-pending planned transactions.
	IncludePlanned bool
	// Forward widens the window to [now-Span, now+Span] months instead of
	// the trailing [now-(Span-1), now].
	Forward bool
}

// CurrencyAmount is a per-currency breakdown entry holding amounts in their
// original currency, before conversion.
type CurrencyAmount struct {
	Currency string
	Income   decimal.Decimal
	Expense  decimal.Decimal
}

// MonthlyBucket is one calendar month of converted totals.
type MonthlyBucket struct {
	Month      string // "Jan 2006"
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
	Cumulative decimal.Decimal
	Currencies []CurrencyAmount
}

// CategoryBucket is one category's converted total.
type CategoryBucket struct {
	Category string
	Type     core.Type
	Amount   decimal.Decimal
}

// Totals are converted sums over a transaction set.
type Totals struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
}

// Period is a closed date interval.
type Period struct {
	Start time.Time
	End   time.Time
}

// included is the shared planned-inclusion predicate: planned transactions
// are excluded entirely unless includePlanned is set, and even then only
// still-pending ones qualify.
func included(tx core.Transaction, includePlanned bool) bool {
	if !includePlanned && tx.IsPlanned {
		return false
	}
	if includePlanned && tx.IsPlanned && tx.Status != core.StatusPending {
		return false
	}
	return true
}

func (e *Engine) currencyOf(tx core.Transaction) string {
	if tx.Currency != "" {
		return tx.Currency
	}
	return e.defaultCurrency
}

func (e *Engine) convert(ctx context.Context, tx core.Transaction) decimal.Decimal {
	return e.conv.Convert(ctx, tx.Amount, e.currencyOf(tx), e.defaultCurrency)
}

// monthIndex flattens a date to a linear month count for window arithmetic.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func monthOf(index int) time.Time {
	return time.Date(index/12, time.Month(index%12+1), 1, 0, 0, 0, 0, time.UTC)
}

// GroupByMonth buckets transactions by calendar month over the window derived
// from opts, converting amounts to the default currency. Every month in the
// window appears, zero-filled when empty; Cumulative is a running balance
// carried across buckets in chronological order.
func (e *Engine) GroupByMonth(ctx context.Context, txs []core.Transaction, now time.Time, opts MonthOptions) []MonthlyBucket {
	first := monthIndex(now) - (opts.Span - 1)
	last := monthIndex(now)
	if opts.Forward {
		first = monthIndex(now) - opts.Span
		last = monthIndex(now) + opts.Span
	}

	type accum struct {
		income, expense decimal.Decimal
		byCurrency      map[string]*CurrencyAmount
	}
	buckets := make(map[int]*accum, last-first+1)
	for i := first; i <= last; i++ {
		buckets[i] = &accum{
			income:     decimal.Zero,
			expense:    decimal.Zero,
			byCurrency: make(map[string]*CurrencyAmount),
		}
	}

	for _, tx := range txs {
		if !included(tx, opts.IncludePlanned) {
			continue
		}
		if tx.Type != core.TypeIncome && tx.Type != core.TypeExpense {
			continue
		}
		if tx.Date.IsZero() {
			continue
		}
		b, ok := buckets[monthIndex(tx.Date)]
		if !ok {
			continue
		}

		converted := e.convert(ctx, tx)
		cur := e.currencyOf(tx)
		ca, ok := b.byCurrency[cur]
		if !ok {
			ca = &CurrencyAmount{Currency: cur, Income: decimal.Zero, Expense: decimal.Zero}
			b.byCurrency[cur] = ca
		}
		if tx.Type == core.TypeIncome {
			b.income = b.income.Add(converted)
			ca.Income = ca.Income.Add(tx.Amount)
		} else {
			b.expense = b.expense.Add(converted)
			ca.Expense = ca.Expense.Add(tx.Amount)
		}
	}

	out := make([]MonthlyBucket, 0, last-first+1)
	cumulative := decimal.Zero
	for i := first; i <= last; i++ {
		b := buckets[i]
		balance := b.income.Sub(b.expense)
		cumulative = cumulative.Add(balance)

		currencies := make([]CurrencyAmount, 0, len(b.byCurrency))
		for _, ca := range b.byCurrency {
			currencies = append(currencies, *ca)
		}
		sort.Slice(currencies, func(a, b int) bool {
			return currencies[a].Currency < currencies[b].Currency
		})

		out = append(out, MonthlyBucket{
			Month:      monthOf(i).Format("Jan 2006"),
			Income:     b.income,
			Expense:    b.expense,
			Balance:    balance,
			Cumulative: cumulative,
			Currencies: currencies,
		})
	}
	return out
}

// GroupByCategory sums converted amounts per category, sorted descending.
// Rejected transactions are always excluded, regardless of the planned flag.
// An empty typeFilter admits all types.
func (e *Engine) GroupByCategory(ctx context.Context, txs []core.Transaction, typeFilter core.Type, includePlanned bool) []CategoryBucket {
	type key struct {
		t core.Type
		c string
	}
	sums := make(map[key]decimal.Decimal)

	for _, tx := range txs {
		if tx.Status == core.StatusRejected {
			continue
		}
		if !included(tx, includePlanned) {
			continue
		}
		if typeFilter != "" && tx.Type != typeFilter {
			continue
		}
		k := key{t: tx.Type, c: tx.Category}
		sums[k] = sums[k].Add(e.convert(ctx, tx))
	}

	out := make([]CategoryBucket, 0, len(sums))
	for k, amount := range sums {
		out = append(out, CategoryBucket{Category: k.c, Type: k.t, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CalculateTotals sums converted income and expense under the same
// planned-inclusion rules as GroupByMonth.
func (e *Engine) CalculateTotals(ctx context.Context, txs []core.Transaction, includePlanned bool) Totals {
	totals := Totals{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, tx := range txs {
		if !included(tx, includePlanned) {
			continue
		}
		switch tx.Type {
		case core.TypeIncome:
			totals.TotalIncome = totals.TotalIncome.Add(e.convert(ctx, tx))
		case core.TypeExpense:
			totals.TotalExpense = totals.TotalExpense.Add(e.convert(ctx, tx))
		}
	}
	totals.Balance = totals.TotalIncome.Sub(totals.TotalExpense)
	return totals
}

// PeriodData filters to settled (non-planned) transactions dated within the
// period, inclusive on both ends.
func PeriodData(txs []core.Transaction, period Period) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.IsPlanned {
			continue
		}
		if tx.Date.Before(period.Start) || tx.Date.After(period.End) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// CalculateExpenseRatio returns expenses as a percentage of income, 0 when
// there is no income. A non-nil period restricts the input first.
func (e *Engine) CalculateExpenseRatio(ctx context.Context, txs []core.Transaction, period *Period) decimal.Decimal {
	if period != nil {
		txs = PeriodData(txs, *period)
	}
	totals := e.CalculateTotals(ctx, txs, false)
	if totals.TotalIncome.IsZero() {
		return decimal.Zero
	}
	return totals.TotalExpense.Div(totals.TotalIncome).Mul(decimal.NewFromInt(100))
}
