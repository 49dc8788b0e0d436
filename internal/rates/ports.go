// Package rates provides currency conversion over externally quoted rate
// tables, with TTL caching and hardcoded fallbacks so conversion never fails
// outright, only degrades.
package rates

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ports for outbound quote providers.
type (
	// FiatSource returns a full rate table for a base currency.
	FiatSource interface {
		Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
	}

	// CryptoSource returns the spot price of one asset in one currency.
	CryptoSource interface {
		SpotPrice(ctx context.Context, assetID, vsCurrency string) (decimal.Decimal, error)
	}
)
