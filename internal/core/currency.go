package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyUSD is the pivot currency for all conversions and the fallback
// default currency.
const CurrencyUSD = "USD"

// SupportedCurrencies is the fiat currency set offered to users.
var SupportedCurrencies = []string{"KZT", "RUB", "USD", "EUR", "GBP", "JPY", "CNY"}

// SupportedCryptos is the crypto asset set offered to users.
var SupportedCryptos = []string{"USDT", "ETH", "BTC", "BNB", "SOL", "XRP", "ADA", "DOGE"}

// SupportedStocks is the stock symbol set offered to users.
var SupportedStocks = []string{"SBER", "GAZP", "YNDX", "AAPL", "GOOGL", "MSFT", "TSLA", "NVDA"}

// CryptoIDs maps crypto symbols to the quote provider's asset identifiers.
var CryptoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"USDT": "tether",
	"BNB":  "binancecoin",
	"SOL":  "solana",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
}

// DefaultRates is the hardcoded USD-based rate table used when no rates were
// ever fetched successfully. Approximate by construction.
var DefaultRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.NewFromFloat(0.92),
	"RUB": decimal.NewFromInt(92),
	"GBP": decimal.NewFromFloat(0.79),
	"JPY": decimal.NewFromInt(150),
	"CNY": decimal.NewFromFloat(7.2),
	"KZT": decimal.NewFromInt(450),
}

// DefaultCryptoPrices is the hardcoded USD spot price fallback for the most
// common assets.
var DefaultCryptoPrices = map[string]decimal.Decimal{
	"BTC":  decimal.NewFromInt(45000),
	"ETH":  decimal.NewFromInt(2500),
	"USDT": decimal.NewFromInt(1),
}

var currencySymbols = map[string]string{
	"RUB": "₽",
	"USD": "$",
	"EUR": "€",
	"KZT": "₸",
	"CNY": "¥",
	"GBP": "£",
	"JPY": "¥",
}

// ValidCurrency reports whether code is a supported fiat currency.
func ValidCurrency(code string) bool {
	code = strings.ToUpper(code)
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// CurrencySymbol returns the display symbol for a currency, or the code
// itself when no symbol is known.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return s
	}
	return code
}

// FormatAmount renders an amount with two decimal places and the currency
// symbol appended.
func FormatAmount(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + CurrencySymbol(currency)
}
