// Package provider declares the market data, FX and CPI capabilities the
// ledger consumes, and TTL-cached wrappers around them.
package provider

import (
	"context"
	"time"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// PriceProvider returns asset prices. BIST symbols are quoted in TRY, others in USD.
type PriceProvider interface {
	LivePrice(ctx context.Context, symbol string) (model.Quote, error)
	HistoricalPrice(ctx context.Context, symbol string, date time.Time) (model.Quote, error)
}

// FxProvider returns USD/TRY rates (TRY per USD).
type FxProvider interface {
	CurrentUSDTRY(ctx context.Context) (model.Rate, error)
	HistoricalUSDTRY(ctx context.Context, date time.Time) (model.Rate, error)
}

// CPIProvider returns the quarterly CPI series, oldest first, and an optional
// expectation for the current quarter. A nil expectation means none is published.
type CPIProvider interface {
	QuarterlySeries(ctx context.Context) ([]model.CPIPoint, error)
	ExpectedCurrentQuarter(ctx context.Context) (*model.Expectation, error)
}

// BankRateProvider returns indicative bank bid/ask quotes for USD.
type BankRateProvider interface {
	BankRates(ctx context.Context) (model.BankRates, error)
}
