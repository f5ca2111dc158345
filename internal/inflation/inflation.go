// Package inflation converts nominal amounts into purchasing-power equivalents
// using the quarterly US CPI series.
package inflation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/provider"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/returns"
)

// Sources reported on a Result besides the model.Source* tags.
const (
	SourceCPI      = "cpi"
	SourceExpected = "expected"
)

// Result is the purchasing-power multiplier between two dates. A multiplier
// above 1 means a dollar at From buys less at To.
type Result struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Multiplier float64   `json:"multiplier"`
	Erosion    float64   `json:"erosion"`
	Estimated  bool      `json:"estimated"`
	Source     string    `json:"source"`
}

// RealReturn compares a current value against the inflation-adjusted sum of
// the flows that funded it.
type RealReturn struct {
	RequiredValue decimal.Decimal `json:"requiredValue"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	RealPnL       decimal.Decimal `json:"realPnl"`
	RealReturnPct float64         `json:"realReturnPct"`
	Estimated     bool            `json:"estimated"`
	Source        string          `json:"source"`
}

// Adjuster computes inflation multipliers from a CPIProvider.
type Adjuster struct {
	cpi provider.CPIProvider
	log zerolog.Logger
}

// NewAdjuster creates an Adjuster over cpi.
func NewAdjuster(cpi provider.CPIProvider, log zerolog.Logger) *Adjuster {
	return &Adjuster{cpi: cpi, log: log}
}

// Multiplier returns the factor by which an amount at from must be scaled to
// hold the same purchasing power at to. When no CPI data is available the
// multiplier is 1 with source "fallback".
func (a *Adjuster) Multiplier(ctx context.Context, from, to time.Time) (Result, error) {
	if to.Before(from) {
		return Result{}, apperrors.ErrInvalidDateRange
	}

	t, ok := a.load(ctx)
	if !ok {
		return Result{From: from, To: to, Multiplier: 1, Erosion: 1, Source: model.SourceFallback}, nil
	}

	m, est := t.multiplier(from, to)
	return Result{
		From:       from,
		To:         to,
		Multiplier: m,
		Erosion:    1 / m,
		Estimated:  est,
		Source:     source(t, est),
	}, nil
}

// ExpectedQuarterlyRate returns the quarterly rate assumed for unpublished
// quarters and where it came from.
func (a *Adjuster) ExpectedQuarterlyRate(ctx context.Context) (float64, string) {
	t, ok := a.load(ctx)
	if !ok {
		return 0, model.SourceFallback
	}
	return t.expectedRate, t.expectedSource
}

// RealReturn scales every flow to its purchasing power at end and compares the
// sum with current. Callers pass the opening valuation as the first flow.
func (a *Adjuster) RealReturn(ctx context.Context, flows []returns.CashFlow, current decimal.Decimal, end time.Time) RealReturn {
	rr := RealReturn{CurrentValue: current, Source: SourceCPI}

	t, ok := a.load(ctx)
	if !ok {
		rr.Source = model.SourceFallback
	}

	for _, f := range flows {
		m := 1.0
		if ok {
			var est bool
			m, est = t.multiplier(f.Date, end)
			if est {
				rr.Estimated = true
			}
		}
		rr.RequiredValue = rr.RequiredValue.Add(f.Amount.Mul(decimal.NewFromFloat(m)))
	}
	if ok {
		rr.Source = source(t, rr.Estimated)
	}

	rr.RealPnL = current.Sub(rr.RequiredValue)
	if rr.RequiredValue.IsPositive() {
		rr.RealReturnPct = rr.RealPnL.Div(rr.RequiredValue).InexactFloat64() * 100
	}
	return rr
}

func (a *Adjuster) load(ctx context.Context) (table, bool) {
	if a.cpi == nil {
		return table{}, false
	}
	series, err := a.cpi.QuarterlySeries(ctx)
	if err != nil || len(series) == 0 {
		a.log.Warn().Err(err).Msg("cpi series unavailable, inflation multiplier is 1")
		return table{}, false
	}
	expectation, err := a.cpi.ExpectedCurrentQuarter(ctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("no cpi expectation, using trailing growth")
		expectation = nil
	}
	return newTable(series, expectation), true
}

func source(t table, estimated bool) string {
	if estimated {
		return t.expectedSource
	}
	return SourceCPI
}
