package rates

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/NikBulygin/financeTracker/internal/core"
	"github.com/NikBulygin/financeTracker/internal/log"
)

// DefaultTTL is how long a fetched rate table is served before refetching.
const DefaultTTL = time.Hour

type cacheEntry struct {
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// Converter fetches and caches rate tables and converts amounts between
// currencies by pivoting through USD. The cache is keyed by base currency;
// concurrent refetches of the same base are collapsed into one request.
type Converter struct {
	fiat   FiatSource
	crypto CryptoSource
	ttl    time.Duration
	logger *log.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

func NewConverter(fiat FiatSource, crypto CryptoSource, ttl time.Duration, logger *log.Logger) *Converter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Converter{
		fiat:   fiat,
		crypto: crypto,
		ttl:    ttl,
		logger: logger.WithComponent(log.ComponentRates),
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}
}

// Rates returns the rate table for base. A fresh cached table is served
// as-is; otherwise the provider is queried and the result cached. On fetch
// failure the last good table is returned, or the hardcoded defaults when
// nothing was ever fetched. Rates never returns an error.
func (c *Converter) Rates(ctx context.Context, base string) map[string]decimal.Decimal {
	base = strings.ToUpper(base)

	c.mu.Lock()
	entry, ok := c.cache[base]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.rates
	}

	fetched, err, _ := c.group.Do(base, func() (any, error) {
		rates, err := c.fiat.Rates(ctx, base)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[base] = cacheEntry{rates: rates, fetchedAt: c.now()}
		c.mu.Unlock()
		return rates, nil
	})
	if err == nil {
		return fetched.(map[string]decimal.Decimal)
	}

	c.logger.WarnContext(ctx, "rate fetch failed, falling back",
		log.FieldBase, base, log.FieldError, err)
	if ok {
		return entry.rates
	}
	return core.DefaultRates
}

// Convert converts amount from one currency to another via the USD pivot.
// When either rate is missing from the table the amount is returned
// unchanged; callers must tolerate approximate results.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount
	}

	rates := c.Rates(ctx, core.CurrencyUSD)
	fromRate, okFrom := rates[from]
	toRate, okTo := rates[to]
	if !okFrom || !okTo || fromRate.IsZero() {
		c.logger.WarnContext(ctx, "missing exchange rate, returning amount unchanged",
			"from", from, "to", to)
		return amount
	}

	return amount.Div(fromRate).Mul(toRate)
}

// ToUSD converts an amount to USD; used to snapshot amount_usd at write time.
func (c *Converter) ToUSD(ctx context.Context, amount decimal.Decimal, from string) decimal.Decimal {
	return c.Convert(ctx, amount, from, core.CurrencyUSD)
}

// CryptoRate returns the spot price of a crypto symbol in vsCurrency. Known
// symbols map to provider asset identifiers; unknown ones pass through
// lower-cased. Provider failures fall back to the hardcoded default prices,
// then to zero.
func (c *Converter) CryptoRate(ctx context.Context, symbol, vsCurrency string) decimal.Decimal {
	upper := strings.ToUpper(symbol)
	assetID, ok := core.CryptoIDs[upper]
	if !ok {
		assetID = strings.ToLower(symbol)
	}

	price, err := c.crypto.SpotPrice(ctx, assetID, strings.ToLower(vsCurrency))
	if err != nil {
		c.logger.WarnContext(ctx, "crypto rate fetch failed, using default",
			log.FieldCurrency, upper, log.FieldError, err)
		if def, ok := core.DefaultCryptoPrices[upper]; ok {
			return def
		}
		return decimal.Zero
	}
	return price
}
