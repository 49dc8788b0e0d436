package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestExchangeRateAPIRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/USD" {
			t.Errorf("path = %q, want /USD", r.URL.Path)
		}
		w.Write([]byte(`{"base":"USD","rates":{"USD":1,"EUR":0.92,"rub":92}}`))
	}))
	defer srv.Close()

	api := NewExchangeRateAPI(srv.URL)
	got, err := api.Rates(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if !got["EUR"].Equal(decimal.NewFromFloat(0.92)) {
		t.Errorf("EUR = %v, want 0.92", got["EUR"])
	}
	if !got["RUB"].Equal(decimal.NewFromInt(92)) {
		t.Errorf("RUB = %v, want 92 (codes upper-cased)", got["RUB"])
	}
}

func TestExchangeRateAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewExchangeRateAPI(srv.URL).Rates(context.Background(), "USD"); err == nil {
		t.Error("expected error on non-200 status")
	}
}

func TestCoinGeckoAPISpotPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "bitcoin" {
			t.Errorf("ids = %q, want bitcoin", got)
		}
		if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
			t.Errorf("vs_currencies = %q, want usd", got)
		}
		w.Write([]byte(`{"bitcoin":{"usd":45123.5}}`))
	}))
	defer srv.Close()

	api := NewCoinGeckoAPI(srv.URL)
	got, err := api.SpotPrice(context.Background(), "bitcoin", "usd")
	if err != nil {
		t.Fatalf("SpotPrice: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(45123.5)) {
		t.Errorf("price = %v, want 45123.5", got)
	}
}

func TestCoinGeckoAPIMissingAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewCoinGeckoAPI(srv.URL).SpotPrice(context.Background(), "nope", "usd"); err == nil {
		t.Error("expected error for unknown asset")
	}
}
