package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikBulygin/financeTracker/internal/core"
)

type AlertLevel string

const (
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

// Alert is a derived spending signal for display.
type Alert struct {
	Level   AlertLevel
	Message string
}

var (
	// warnRatio is the expense ratio, in percent, above which a warning fires.
	warnRatio = decimal.NewFromInt(80)
	// ratioRise is the month-over-month ratio increase, in percentage
	// points, above which a warning fires.
	ratioRise = decimal.NewFromInt(10)
)

// monthBounds returns the calendar month containing t, offset by delta
// months. Bounds are computed from the month index so the end-of-month
// normalization of AddDate cannot skip a month.
func monthBounds(t time.Time, delta int) Period {
	start := monthOf(monthIndex(t) + delta)
	return Period{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// Alerts evaluates the current calendar month against spending thresholds
// and against the prior month. Overspending raises a danger signal, an
// expense ratio above 80% a warning; separately, a ratio risen by more than
// 10 percentage points since last month raises its own warning.
func (e *Engine) Alerts(ctx context.Context, txs []core.Transaction, now time.Time) []Alert {
	var alerts []Alert

	current := PeriodData(txs, monthBounds(now, 0))
	currentTotals := e.CalculateTotals(ctx, current, false)
	currentRatio := e.CalculateExpenseRatio(ctx, current, nil)

	switch {
	case currentTotals.TotalExpense.GreaterThanOrEqual(currentTotals.TotalIncome) &&
		currentTotals.TotalIncome.IsPositive():
		alerts = append(alerts, Alert{
			Level: AlertDanger,
			Message: fmt.Sprintf("expenses (%s) meet or exceed income (%s) this month",
				core.FormatAmount(currentTotals.TotalExpense, e.defaultCurrency),
				core.FormatAmount(currentTotals.TotalIncome, e.defaultCurrency)),
		})
	case currentRatio.GreaterThan(warnRatio) && currentTotals.TotalIncome.IsPositive():
		alerts = append(alerts, Alert{
			Level: AlertWarning,
			Message: fmt.Sprintf("expenses are %s%% of income this month",
				currentRatio.Round(0)),
		})
	}

	previous := PeriodData(txs, monthBounds(now, -1))
	previousTotals := e.CalculateTotals(ctx, previous, false)
	previousRatio := e.CalculateExpenseRatio(ctx, previous, nil)

	if previousTotals.TotalIncome.IsPositive() && currentTotals.TotalIncome.IsPositive() {
		if diff := currentRatio.Sub(previousRatio); diff.GreaterThan(ratioRise) {
			alerts = append(alerts, Alert{
				Level: AlertWarning,
				Message: fmt.Sprintf("expense ratio rose by %s percentage points since last month",
					diff.Round(0)),
			})
		}
	}

	return alerts
}
