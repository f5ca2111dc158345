package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// ErrFakeUnavailable is returned by fakes for unknown symbols or when failing.
var ErrFakeUnavailable = errors.New("fake provider: unavailable")

// FakePrices is a deterministic PriceProvider.
//
// Example usage:
//
//	prices := testutil.NewFakePrices().
//	    WithLive("AAPL", "200").
//	    WithClose("AAPL", date, "180")
type FakePrices struct {
	mu     sync.Mutex
	live   map[string]decimal.Decimal
	closes map[string]map[string]decimal.Decimal
	Fail   bool
	Calls  int
}

// NewFakePrices creates an empty FakePrices.
func NewFakePrices() *FakePrices {
	return &FakePrices{
		live:   map[string]decimal.Decimal{},
		closes: map[string]map[string]decimal.Decimal{},
	}
}

// WithLive sets the live price of symbol.
func (f *FakePrices) WithLive(symbol, price string) *FakePrices {
	f.live[strings.ToUpper(symbol)] = decimal.RequireFromString(price)
	return f
}

// WithClose sets the close of symbol on the day of date.
func (f *FakePrices) WithClose(symbol string, date time.Time, price string) *FakePrices {
	symbol = strings.ToUpper(symbol)
	if f.closes[symbol] == nil {
		f.closes[symbol] = map[string]decimal.Decimal{}
	}
	f.closes[symbol][date.UTC().Format("2006-01-02")] = decimal.RequireFromString(price)
	return f
}

// LivePrice implements provider.PriceProvider.
func (f *FakePrices) LivePrice(_ context.Context, symbol string) (model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++

	p, ok := f.live[strings.ToUpper(symbol)]
	if f.Fail || !ok {
		return model.Quote{}, ErrFakeUnavailable
	}
	return model.Quote{Symbol: symbol, Price: p, Currency: model.QuoteCurrency(symbol), Source: model.SourceLive}, nil
}

// HistoricalPrice implements provider.PriceProvider.
func (f *FakePrices) HistoricalPrice(_ context.Context, symbol string, date time.Time) (model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++

	p, ok := f.closes[strings.ToUpper(symbol)][date.UTC().Format("2006-01-02")]
	if f.Fail || !ok {
		return model.Quote{}, ErrFakeUnavailable
	}
	return model.Quote{Symbol: symbol, Price: p, Currency: model.QuoteCurrency(symbol), Timestamp: date, Source: model.SourceHistorical}, nil
}

// FakeFx is a deterministic FxProvider. Historical dates without a
// configured rate use the current rate.
type FakeFx struct {
	mu      sync.Mutex
	Current decimal.Decimal
	byDay   map[string]decimal.Decimal
	Fail    bool
}

// NewFakeFx creates a FakeFx quoting rate.
func NewFakeFx(rate string) *FakeFx {
	return &FakeFx{Current: decimal.RequireFromString(rate), byDay: map[string]decimal.Decimal{}}
}

// WithRateOn sets the rate on the day of date.
func (f *FakeFx) WithRateOn(date time.Time, rate string) *FakeFx {
	f.byDay[date.UTC().Format("2006-01-02")] = decimal.RequireFromString(rate)
	return f
}

// SetFail toggles failures.
func (f *FakeFx) SetFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fail = fail
}

// CurrentUSDTRY implements provider.FxProvider.
func (f *FakeFx) CurrentUSDTRY(context.Context) (model.Rate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return model.Rate{}, ErrFakeUnavailable
	}
	return model.Rate{Value: f.Current, Source: model.SourceLive}, nil
}

// HistoricalUSDTRY implements provider.FxProvider.
func (f *FakeFx) HistoricalUSDTRY(_ context.Context, date time.Time) (model.Rate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return model.Rate{}, ErrFakeUnavailable
	}
	if r, ok := f.byDay[date.UTC().Format("2006-01-02")]; ok {
		return model.Rate{Value: r, Timestamp: date, Source: model.SourceHistorical}, nil
	}
	return model.Rate{Value: f.Current, Timestamp: date, Source: model.SourceHistorical}, nil
}

// FakeCPI is a deterministic CPIProvider.
type FakeCPI struct {
	Series      []model.CPIPoint
	Expectation *model.Expectation
	Fail        bool
}

// QuarterlySeries implements provider.CPIProvider.
func (f *FakeCPI) QuarterlySeries(context.Context) ([]model.CPIPoint, error) {
	if f.Fail {
		return nil, ErrFakeUnavailable
	}
	return f.Series, nil
}

// ExpectedCurrentQuarter implements provider.CPIProvider.
func (f *FakeCPI) ExpectedCurrentQuarter(context.Context) (*model.Expectation, error) {
	if f.Fail {
		return nil, ErrFakeUnavailable
	}
	return f.Expectation, nil
}

// FakeBank is a deterministic BankRateProvider.
type FakeBank struct {
	Rates model.BankRates
	Fail  bool
}

// BankRates implements provider.BankRateProvider.
func (f *FakeBank) BankRates(context.Context) (model.BankRates, error) {
	if f.Fail {
		return model.BankRates{}, ErrFakeUnavailable
	}
	return f.Rates, nil
}

// FixedClock returns a clock function that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
