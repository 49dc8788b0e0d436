package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NikBulygin/financeTracker/internal/analytics"
	"github.com/NikBulygin/financeTracker/internal/cli"
	"github.com/NikBulygin/financeTracker/internal/config"
	"github.com/NikBulygin/financeTracker/internal/core"
	"github.com/NikBulygin/financeTracker/internal/log"
	"github.com/NikBulygin/financeTracker/internal/rates"
	"github.com/NikBulygin/financeTracker/internal/services"
	"github.com/NikBulygin/financeTracker/internal/storage"
)

const agent = "financetracker-cli/" + config.AppVersion

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()

	store, closeStore, err := cli.NewStore(cfg, agent, logger)
	if err != nil {
		logger.Error("failed to open storage", log.FieldError, err)
		os.Exit(1)
	}
	defer closeStore()

	converter := rates.NewConverter(
		rates.NewExchangeRateAPI(cfg.ExchangeAPIURL),
		rates.NewCoinGeckoAPI(cfg.CoinGeckoAPIURL),
		cfg.RatesTTL,
		logger,
	)
	svc := services.NewTransactionService(store, logger)
	engine := analytics.NewEngine(converter, cfg.DefaultCurrency)

	switch os.Args[1] {
	case "add":
		err = runAdd(ctx, svc, converter, cfg, os.Args[2:])
	case "list":
		err = runList(ctx, svc, cfg, os.Args[2:])
	case "planned":
		err = runPlanned(ctx, svc, cfg)
	case "categories":
		err = runCategories(ctx, svc, cfg, os.Args[2:])
	case "report":
		err = runReport(ctx, svc, engine, cfg, os.Args[2:])
	case "alerts":
		err = runAlerts(ctx, svc, engine, cfg)
	case "sync":
		err = runSync(ctx, store, cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: financetracker <command> [flags]

commands:
  add         add a transaction
  list        list transactions
  planned     list upcoming planned transactions
  categories  list categories in use
  report      monthly income/expense report
  alerts      spending alerts for the current month
  sync        run the remote mirror sync loop until interrupted`)
}

func runAdd(ctx context.Context, svc *services.TransactionService, converter *rates.Converter, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	txType := fs.String("type", "expense", "transaction type (income|expense|investment|crypto)")
	amount := fs.String("amount", "", "amount (decimal, required)")
	date := fs.String("date", time.Now().Format(core.DateLayout), "date (YYYY-MM-DD)")
	category := fs.String("category", "", "category (required)")
	description := fs.String("description", "", "description")
	planned := fs.Bool("planned", false, "planned (not yet settled)")
	currency := fs.String("currency", "", "currency code (defaults to "+cfg.DefaultCurrency+")")
	fromAsset := fs.String("from", "", "exchanged asset (investments only)")
	toAsset := fs.String("to", "", "received asset (investments only)")
	exchangeRate := fs.String("rate", "", "exchange rate (investments only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	day, err := time.Parse(core.DateLayout, *date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}

	draft := core.Draft{
		Type:        core.Type(*txType),
		Amount:      amt,
		Date:        day,
		Category:    *category,
		Description: *description,
		IsPlanned:   *planned,
		FromAsset:   *fromAsset,
		ToAsset:     *toAsset,
		Currency:    *currency,
	}
	if *exchangeRate != "" {
		rate, err := decimal.NewFromString(*exchangeRate)
		if err != nil {
			return fmt.Errorf("parse exchange rate: %w", err)
		}
		draft.ExchangeRate = decimal.NewNullDecimal(rate)
	}

	// Snapshot the USD value at write time.
	cur := draft.Currency
	if cur == "" {
		cur = cfg.DefaultCurrency
	}
	draft.AmountUSD = decimal.NewNullDecimal(converter.ToUSD(ctx, amt, cur))

	tx, err := svc.Add(ctx, cfg.Identity, draft)
	if err != nil {
		return err
	}
	fmt.Printf("added %s: %s %s %s\n", tx.ID, tx.Type, core.FormatAmount(tx.Amount, cur), tx.Category)
	return nil
}

func runList(ctx context.Context, svc *services.TransactionService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	txType := fs.String("type", "", "filter by type")
	category := fs.String("category", "", "filter by category")
	search := fs.String("search", "", "substring search over description/category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	txs, err := svc.List(ctx, cfg.Identity)
	if err != nil {
		return err
	}
	txs = services.Filter(txs, services.FilterCriteria{
		Type:     core.Type(*txType),
		Category: *category,
		Search:   *search,
	})
	for _, tx := range txs {
		printTx(tx, cfg.DefaultCurrency)
	}
	return nil
}

func runPlanned(ctx context.Context, svc *services.TransactionService, cfg *config.Config) error {
	txs, err := svc.ListPlanned(ctx, cfg.Identity, cfg.PlannedWindowDays)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		printTx(tx, cfg.DefaultCurrency)
	}
	return nil
}

func runCategories(ctx context.Context, svc *services.TransactionService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	txType := fs.String("type", "", "filter by type")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cats, err := svc.Categories(ctx, cfg.Identity, core.Type(*txType))
	if err != nil {
		return err
	}
	for _, c := range cats {
		fmt.Println(c)
	}
	return nil
}

func runReport(ctx context.Context, svc *services.TransactionService, engine *analytics.Engine, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	months := fs.Int("months", 12, "window size in months")
	planned := fs.Bool("planned", false, "include still-pending planned transactions")
	forward := fs.Bool("forward", false, "widen the window to +/- months around now")
	if err := fs.Parse(args); err != nil {
		return err
	}

	txs, err := svc.List(ctx, cfg.Identity)
	if err != nil {
		return err
	}

	buckets := engine.GroupByMonth(ctx, txs, time.Now(), analytics.MonthOptions{
		Span:           *months,
		IncludePlanned: *planned,
		Forward:        *forward,
	})
	for _, b := range buckets {
		fmt.Printf("%-9s income %12s  expense %12s  balance %12s  cumulative %12s\n",
			b.Month,
			b.Income.StringFixed(2), b.Expense.StringFixed(2),
			b.Balance.StringFixed(2), b.Cumulative.StringFixed(2))
	}

	totals := engine.CalculateTotals(ctx, txs, *planned)
	ratio := engine.CalculateExpenseRatio(ctx, txs, nil)
	fmt.Printf("\ntotal income %s, total expense %s, balance %s, expense ratio %s%%\n",
		core.FormatAmount(totals.TotalIncome, cfg.DefaultCurrency),
		core.FormatAmount(totals.TotalExpense, cfg.DefaultCurrency),
		core.FormatAmount(totals.Balance, cfg.DefaultCurrency),
		ratio.Round(1))
	return nil
}

func runAlerts(ctx context.Context, svc *services.TransactionService, engine *analytics.Engine, cfg *config.Config) error {
	txs, err := svc.List(ctx, cfg.Identity)
	if err != nil {
		return err
	}
	alerts := engine.Alerts(ctx, txs, time.Now())
	if len(alerts) == 0 {
		fmt.Println("no alerts")
		return nil
	}
	for _, a := range alerts {
		fmt.Printf("[%s] %s\n", a.Level, a.Message)
	}
	return nil
}

func runSync(ctx context.Context, store storage.TableStore, cfg *config.Config, logger *log.Logger) error {
	remote, err := cli.NewMirror(ctx, cfg, logger)
	if err != nil {
		return err
	}

	session := services.NewSyncSession(cfg.Identity, store, remote, services.SyncConfig{
		PollInterval: cfg.SyncPollInterval,
		Debounce:     cfg.SyncDebounce,
		OpTimeout:    cfg.SyncTimeout,
	}, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := session.Start(runCtx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := session.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop sync session: %w", err)
	}

	status := session.Status()
	fmt.Printf("sync status: %s", status.Status)
	if status.LastSyncTime != nil {
		fmt.Printf(", last sync %s", status.LastSyncTime.Format(time.RFC3339))
	}
	if status.Error != "" {
		fmt.Printf(", error: %s", status.Error)
	}
	fmt.Println()
	return nil
}

func printTx(tx core.Transaction, defaultCurrency string) {
	cur := tx.Currency
	if cur == "" {
		cur = defaultCurrency
	}
	planned := ""
	if tx.IsPlanned {
		planned = " planned"
	}
	fmt.Printf("%s  %s  %-10s %14s  %-12s %s%s\n",
		tx.ID, tx.Date.Format(core.DateLayout), tx.Type,
		core.FormatAmount(tx.Amount, cur), tx.Status, tx.Description, planned)
}
