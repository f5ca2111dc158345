// Package valuation prices a replayed ledger state in TRY and USD.
package valuation

import (
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/ledger"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// Component names accepted by an Include set besides asset symbols.
const (
	CashTRY     = "cash_try"
	CashUSD     = "cash_usd"
	InterestTRY = "interest_try"
	InterestUSD = "interest_usd"
)

// Include restricts a valuation to named components. A nil Include values everything.
type Include map[string]bool

// NewInclude builds an Include from component names and symbols. Symbols are
// upper-cased; with no items it returns nil (everything).
func NewInclude(items ...string) Include {
	if len(items) == 0 {
		return nil
	}
	in := make(Include, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		switch strings.ToLower(item) {
		case CashTRY, CashUSD, InterestTRY, InterestUSD:
			in[strings.ToLower(item)] = true
		default:
			in[strings.ToUpper(item)] = true
		}
	}
	if len(in) == 0 {
		return nil
	}
	return in
}

// Has reports whether component is part of the valuation.
func (in Include) Has(component string) bool {
	return in == nil || in[component]
}

// Selective reports whether the valuation is restricted.
func (in Include) Selective() bool {
	return in != nil
}

// Items returns the included component names in sorted order, nil for
// everything.
func (in Include) Items() []string {
	if in == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(in))
}

// HoldingValue is the priced position of one symbol.
type HoldingValue struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	PriceCurrency model.Currency  `json:"priceCurrency"`
	PriceSource   string          `json:"priceSource"`
	AvgCostUSD    decimal.Decimal `json:"avgCostUsd"`
	CostUSD       decimal.Decimal `json:"costUsd"`
	ValueTRY      decimal.Decimal `json:"valueTry"`
	ValueUSD      decimal.Decimal `json:"valueUsd"`
	UnrealizedUSD decimal.Decimal `json:"unrealizedUsd"`
	UnrealizedPct float64         `json:"unrealizedPct"`
}

// Valuation is a state priced in both currencies.
type Valuation struct {
	FxRate      decimal.Decimal `json:"fxRate"`
	CashTRY     decimal.Decimal `json:"cashTry"`
	CashUSD     decimal.Decimal `json:"cashUsd"`
	InterestTRY decimal.Decimal `json:"interestTry"`
	InterestUSD decimal.Decimal `json:"interestUsd"`
	Holdings    []HoldingValue  `json:"holdings"`
	TotalTRY    decimal.Decimal `json:"totalTry"`
	TotalUSD    decimal.Decimal `json:"totalUsd"`
	// Degraded is set when at least one holding was valued at cost basis.
	Degraded bool `json:"degraded"`
}

// Value prices state with quotes and the USD/TRY rate fx. Holdings without a
// usable quote are valued at their own average cost.
func Value(state ledger.State, quotes map[string]model.Quote, fx decimal.Decimal, include Include) Valuation {
	v := Valuation{FxRate: fx, Holdings: []HoldingValue{}}

	add := func(amount decimal.Decimal, cur model.Currency) {
		try, usd := convert(amount, cur, fx)
		v.TotalTRY = v.TotalTRY.Add(try)
		v.TotalUSD = v.TotalUSD.Add(usd)
	}

	if include.Has(CashTRY) {
		v.CashTRY = state.CashTRY
		add(state.CashTRY, model.TRY)
	}
	if include.Has(CashUSD) {
		v.CashUSD = state.CashUSD
		add(state.CashUSD, model.USD)
	}
	if include.Has(InterestTRY) {
		v.InterestTRY = state.InterestTRY
		add(state.InterestTRY, model.TRY)
	}
	if include.Has(InterestUSD) {
		v.InterestUSD = state.InterestUSD
		add(state.InterestUSD, model.USD)
	}

	for _, sym := range state.Symbols() {
		if !include.Has(sym) {
			continue
		}
		pos := state.Holdings[sym]
		hv := valueHolding(sym, pos, quotes, fx)
		if hv.PriceSource == model.SourceCostBasis {
			v.Degraded = true
		}
		v.TotalTRY = v.TotalTRY.Add(hv.ValueTRY)
		v.TotalUSD = v.TotalUSD.Add(hv.ValueUSD)
		v.Holdings = append(v.Holdings, hv)
	}

	return v
}

func valueHolding(sym string, pos ledger.Position, quotes map[string]model.Quote, fx decimal.Decimal) HoldingValue {
	hv := HoldingValue{
		Symbol:     sym,
		Quantity:   pos.Quantity,
		AvgCostUSD: pos.AvgCostUSD(),
		CostUSD:    pos.TotalCostUSD,
	}

	q, ok := quotes[sym]
	if ok && q.Price.IsPositive() {
		cur := q.Currency
		if !cur.Valid() {
			cur = model.QuoteCurrency(sym)
		}
		hv.Price = q.Price
		hv.PriceCurrency = cur
		hv.PriceSource = q.Source
		hv.ValueTRY, hv.ValueUSD = convert(q.Price.Mul(pos.Quantity), cur, fx)
	} else {
		hv.Price = hv.AvgCostUSD
		hv.PriceCurrency = model.USD
		hv.PriceSource = model.SourceCostBasis
		hv.ValueTRY, hv.ValueUSD = convert(pos.TotalCostUSD, model.USD, fx)
	}

	hv.UnrealizedUSD = hv.ValueUSD.Sub(hv.CostUSD)
	if hv.CostUSD.IsPositive() {
		hv.UnrealizedPct = hv.UnrealizedUSD.Div(hv.CostUSD).InexactFloat64() * 100
	}
	return hv
}

// convert returns amount in TRY and USD. Without a positive rate the
// counter-currency side is zero.
func convert(amount decimal.Decimal, cur model.Currency, fx decimal.Decimal) (try, usd decimal.Decimal) {
	if cur == model.TRY {
		if fx.IsPositive() {
			return amount, amount.Div(fx)
		}
		return amount, decimal.Zero
	}
	return amount.Mul(fx), amount
}
