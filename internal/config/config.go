package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NikBulygin/financeTracker/internal/core"
)

// AppVersion is recorded in the metadata row of newly created tables.
const AppVersion = "1.0.0"

type Config struct {
	// Identity is the active user (table owner), usually an email.
	Identity string

	// Storage
	DataBackend  string // "memory" or "sqlite"
	SQLiteDBPath string

	// Remote mirror
	MirrorBackend string // "memory" or "drive"

	// Sync loop
	SyncPollInterval time.Duration
	SyncDebounce     time.Duration
	SyncTimeout      time.Duration

	// PlannedWindowDays is how far ahead upcoming planned transactions are
	// listed.
	PlannedWindowDays int

	// Rates
	DefaultCurrency string
	RatesTTL        time.Duration
	ExchangeAPIURL  string
	CoinGeckoAPIURL string
}

func Load() *Config {
	return &Config{
		Identity: getEnv("FT_IDENTITY", ""),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financetracker.db"),

		MirrorBackend: getEnv("MIRROR_BACKEND", "memory"),

		SyncPollInterval: getEnvDuration("SYNC_POLL_INTERVAL", 5*time.Second),
		SyncDebounce:     getEnvDuration("SYNC_DEBOUNCE", 2*time.Second),
		SyncTimeout:      getEnvDuration("SYNC_TIMEOUT", 30*time.Second),

		PlannedWindowDays: getEnvInt("PLANNED_WINDOW_DAYS", 30),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", core.CurrencyUSD),
		RatesTTL:        getEnvDuration("RATES_TTL", time.Hour),
		ExchangeAPIURL:  getEnv("EXCHANGE_API_URL", ""),
		CoinGeckoAPIURL: getEnv("COINGECKO_API_URL", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch c.DataBackend {
	case "memory", "sqlite":
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}
	if c.DataBackend == "sqlite" && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errors = append(errors, "sqlite backend requires SQLITE_DB_PATH")
	}

	switch c.MirrorBackend {
	case "memory", "drive":
	default:
		errors = append(errors, fmt.Sprintf("invalid mirror backend '%s': must be one of [memory drive]", c.MirrorBackend))
	}

	if !core.ValidCurrency(c.DefaultCurrency) {
		errors = append(errors, fmt.Sprintf("unsupported default currency '%s'", c.DefaultCurrency))
	}

	if c.SyncPollInterval <= 0 {
		errors = append(errors, "sync poll interval must be positive")
	}
	if c.SyncDebounce <= 0 {
		errors = append(errors, "sync debounce must be positive")
	}
	if c.PlannedWindowDays <= 0 {
		errors = append(errors, "planned window days must be positive")
	}
	if c.RatesTTL <= 0 {
		errors = append(errors, "rates TTL must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
