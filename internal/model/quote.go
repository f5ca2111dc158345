package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Data source tags attached to provider results.
const (
	SourceLive       = "live"
	SourceHistorical = "historical"
	SourceCache      = "cache"
	SourceStale      = "stale_cache"
	SourceCostBasis  = "cost_basis"
	SourceFallback   = "fallback"
	SourceTrailing   = "trailing_average"
	SourceEstimated  = "estimated"
	SourceManual     = "manual"
)

// BISTSuffix marks symbols listed on Borsa Istanbul, priced in TRY.
const BISTSuffix = ".IS"

// IsBIST reports whether symbol trades in TRY.
func IsBIST(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(symbol), BISTSuffix)
}

// QuoteCurrency returns the currency a symbol is priced in.
func QuoteCurrency(symbol string) Currency {
	if IsBIST(symbol) {
		return TRY
	}
	return USD
}

// Quote is a price observation for a symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Currency  Currency        `json:"currency"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// Rate is a USD/TRY observation.
type Rate struct {
	Value     decimal.Decimal `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// BankRates are indicative bank bid/ask quotes for USD in TRY.
type BankRates struct {
	Buy       decimal.Decimal `json:"buy"`
	Sell      decimal.Decimal `json:"sell"`
	Mid       decimal.Decimal `json:"mid"`
	SpreadPct float64         `json:"spreadPct"`
	Source    string          `json:"source"`
}

// CPIPoint is one quarterly CPI observation.
type CPIPoint struct {
	Year    int     `json:"year"`
	Quarter int     `json:"quarter"`
	Value   float64 `json:"value"`
}

// Expectation is an annual CPI growth expectation in percent.
type Expectation struct {
	AnnualRate float64 `json:"annualRate"`
	Source     string  `json:"source"`
}
