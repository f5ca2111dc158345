// Package returns computes period performance of a ledger with the Modified
// Dietz money-weighted method.
package returns

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CashFlow is an external flow into (positive) or out of (negative) the portfolio.
type CashFlow struct {
	Date   time.Time
	Amount decimal.Decimal
}

// SeriesReturn is the performance of one currency series over a period.
type SeriesReturn struct {
	StartValue   decimal.Decimal `json:"startValue"`
	EndValue     decimal.Decimal `json:"endValue"`
	NetFlow      decimal.Decimal `json:"netFlow"`
	WeightedFlow decimal.Decimal `json:"weightedFlow"`
	PnL          decimal.Decimal `json:"pnl"`
	ReturnPct    float64         `json:"returnPct"`
}

// PeriodDays is the whole number of days between start and end, at least 1.
func PeriodDays(start, end time.Time) int {
	return max(1, int(end.Sub(start).Hours()/24))
}

// ModifiedDietz computes
//
//	PnL     = End - Start - NetFlow
//	Return% = PnL / (Start + sum(flow * (totalDays - daysSinceStart) / totalDays))
//
// A non-positive denominator yields a zero return.
func ModifiedDietz(startValue, endValue decimal.Decimal, flows []CashFlow, start, end time.Time) SeriesReturn {
	total := PeriodDays(start, end)
	totalDec := decimal.NewFromInt(int64(total))

	r := SeriesReturn{StartValue: startValue, EndValue: endValue}
	for _, f := range flows {
		since := min(total, max(0, int(f.Date.Sub(start).Hours()/24)))
		weight := decimal.NewFromInt(int64(total - since))
		r.NetFlow = r.NetFlow.Add(f.Amount)
		r.WeightedFlow = r.WeightedFlow.Add(f.Amount.Mul(weight).Div(totalDec))
	}

	r.PnL = endValue.Sub(startValue).Sub(r.NetFlow)
	denominator := startValue.Add(r.WeightedFlow)
	if denominator.IsPositive() {
		r.ReturnPct = r.PnL.Div(denominator).InexactFloat64() * 100
	}
	return r
}

// Simple computes End - Start without flow adjustment, used for selective
// valuations where flows cannot be attributed to the subset.
func Simple(startValue, endValue decimal.Decimal) SeriesReturn {
	r := SeriesReturn{
		StartValue: startValue,
		EndValue:   endValue,
		PnL:        endValue.Sub(startValue),
	}
	if startValue.IsPositive() {
		r.ReturnPct = r.PnL.Div(startValue).InexactFloat64() * 100
	}
	return r
}

// Annualize converts a return over days into a compound annual rate, both in percent.
func Annualize(returnPct float64, days int) float64 {
	if days <= 0 || returnPct <= -100 {
		return 0
	}
	return (math.Pow(1+returnPct/100, 365/float64(days)) - 1) * 100
}
