package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultExchangeAPIURL  = "https://api.exchangerate-api.com/v4/latest"
	defaultCoinGeckoAPIURL = "https://api.coingecko.com/api/v3"
	requestTimeout         = 10 * time.Second
)

// ExchangeRateAPI fetches fiat rate tables from exchangerate-api.com.
type ExchangeRateAPI struct {
	baseURL string
	client  *http.Client
}

var _ FiatSource = (*ExchangeRateAPI)(nil)

func NewExchangeRateAPI(baseURL string) *ExchangeRateAPI {
	if baseURL == "" {
		baseURL = defaultExchangeAPIURL
	}
	return &ExchangeRateAPI{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (a *ExchangeRateAPI) Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/"+url.PathEscape(strings.ToUpper(base)), nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates for %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates for %s: unexpected status %s", base, resp.Status)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates for %s: %w", base, err)
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, rate := range payload.Rates {
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}

// CoinGeckoAPI fetches crypto spot prices from the CoinGecko simple price
// endpoint.
type CoinGeckoAPI struct {
	baseURL string
	client  *http.Client
}

var _ CryptoSource = (*CoinGeckoAPI)(nil)

func NewCoinGeckoAPI(baseURL string) *CoinGeckoAPI {
	if baseURL == "" {
		baseURL = defaultCoinGeckoAPIURL
	}
	return &CoinGeckoAPI{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (a *CoinGeckoAPI) SpotPrice(ctx context.Context, assetID, vsCurrency string) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", assetID)
	q.Set("vs_currencies", vsCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build price request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch price for %s: %w", assetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch price for %s: unexpected status %s", assetID, resp.Status)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode price for %s: %w", assetID, err)
	}

	price, ok := payload[assetID][vsCurrency]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for %s in %s", assetID, vsCurrency)
	}
	return decimal.NewFromFloat(price), nil
}
