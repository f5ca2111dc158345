package returns

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/ledger"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/provider"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/valuation"
)

// Calculator values a ledger at two dates and computes the return between them.
type Calculator struct {
	prices       provider.PriceProvider
	fx           provider.FxProvider
	liveWindow   time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock sets the time source used to decide between live and historical data.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// WithLiveWindow sets how close to now a date must be to use live data.
func WithLiveWindow(d time.Duration) Option {
	return func(c *Calculator) {
		c.liveWindow = d
	}
}

// WithFetchTimeout bounds each price lookup.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Calculator) {
		c.fetchTimeout = d
	}
}

// NewCalculator creates a Calculator over the given providers.
func NewCalculator(prices provider.PriceProvider, fx provider.FxProvider, log zerolog.Logger, opts ...Option) *Calculator {
	c := &Calculator{
		prices:       prices,
		fx:           fx,
		liveWindow:   10 * time.Minute,
		fetchTimeout: 10 * time.Second,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is a replayed and valued state at one date.
type Snapshot struct {
	At         time.Time           `json:"at"`
	Live       bool                `json:"live"`
	RateSource string              `json:"rateSource"`
	Valuation  valuation.Valuation `json:"valuation"`
	State      ledger.State        `json:"-"`
}

// PnL is the result of a period return calculation.
type PnL struct {
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
	Days      int          `json:"days"`
	Selective bool         `json:"selective"`
	Include   []string     `json:"include,omitempty"`
	TRY       SeriesReturn `json:"try"`
	USD       SeriesReturn `json:"usd"`
	FlowsTRY  []CashFlow   `json:"-"`
	FlowsUSD  []CashFlow   `json:"-"`
	StartSnap Snapshot     `json:"startSnapshot"`
	EndSnap   Snapshot     `json:"endSnapshot"`
}

// PeriodReturn computes the return of the ledger txs between start and end.
// Without an include filter it uses Modified Dietz per currency; with one it
// reports the simple change in value of the included components.
func (c *Calculator) PeriodReturn(ctx context.Context, txs []model.Transaction, start, end time.Time, include valuation.Include) (PnL, error) {
	if !end.After(start) {
		return PnL{}, apperrors.ErrInvalidDateRange
	}

	if first, ok := FirstEffectiveDate(txs); ok && start.Before(first) && first.Before(end) {
		start = first
	}

	startSnap := c.Snapshot(ctx, txs, start, include)
	endSnap := c.Snapshot(ctx, txs, end, include)

	p := PnL{
		Start:     start,
		End:       end,
		Days:      PeriodDays(start, end),
		Selective: include.Selective(),
		Include:   include.Items(),
		StartSnap: startSnap,
		EndSnap:   endSnap,
	}

	if include.Selective() {
		p.TRY = Simple(startSnap.Valuation.TotalTRY, endSnap.Valuation.TotalTRY)
		p.USD = Simple(startSnap.Valuation.TotalUSD, endSnap.Valuation.TotalUSD)
		return p, nil
	}

	p.FlowsTRY, p.FlowsUSD = ExternalFlows(txs, start, end)
	p.TRY = ModifiedDietz(startSnap.Valuation.TotalTRY, endSnap.Valuation.TotalTRY, p.FlowsTRY, start, end)
	p.USD = ModifiedDietz(startSnap.Valuation.TotalUSD, endSnap.Valuation.TotalUSD, p.FlowsUSD, start, end)
	return p, nil
}

// Snapshot replays txs at the given date and values the result with prices and
// the USD/TRY rate as of that date.
func (c *Calculator) Snapshot(ctx context.Context, txs []model.Transaction, at time.Time, include valuation.Include) Snapshot {
	state := ledger.Replay(txs, at)
	live := c.isLive(at)

	rate, source := c.rateAt(ctx, txs, at, live)

	var symbols []string
	for _, sym := range state.Symbols() {
		if include.Has(sym) {
			symbols = append(symbols, sym)
		}
	}
	quotes := valuation.FetchQuotes(ctx, c.prices, symbols, at, live, c.fetchTimeout, c.log)

	return Snapshot{
		At:         at,
		Live:       live,
		RateSource: source,
		Valuation:  valuation.Value(state, quotes, rate, include),
		State:      state,
	}
}

func (c *Calculator) isLive(at time.Time) bool {
	diff := c.now().Sub(at)
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.liveWindow
}

// rateAt returns the USD/TRY rate for a date. When the provider cannot serve
// it, the latest rate recorded on a transaction effective by then is used.
func (c *Calculator) rateAt(ctx context.Context, txs []model.Transaction, at time.Time, live bool) (decimal.Decimal, string) {
	if c.fx != nil {
		cctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()

		var r model.Rate
		var err error
		if live {
			r, err = c.fx.CurrentUSDTRY(cctx)
		} else {
			r, err = c.fx.HistoricalUSDTRY(cctx, at)
		}
		if err == nil && r.Value.IsPositive() {
			return r.Value, r.Source
		}
		c.log.Warn().Err(err).Time("at", at).Msg("usd/try rate unavailable, using ledger rate")
	}
	return RecordedRate(txs, at), model.SourceFallback
}

// RecordedRate is the USD/TRY rate of the last transaction effective at or
// before at that recorded one, zero when none did.
func RecordedRate(txs []model.Transaction, at time.Time) decimal.Decimal {
	rate := decimal.Zero
	for _, tx := range ledger.Sorted(txs) {
		if tx.EffectiveDate().After(at) {
			continue
		}
		if tx.USDTRYRate.IsPositive() {
			rate = tx.USDTRYRate
		}
	}
	return rate
}

// FirstEffectiveDate returns the earliest effective date in txs.
func FirstEffectiveDate(txs []model.Transaction) (time.Time, bool) {
	var first time.Time
	for i := range txs {
		eff := txs[i].EffectiveDate()
		if i == 0 || eff.Before(first) {
			first = eff
		}
	}
	return first, len(txs) > 0
}

// ExternalFlows collects deposits (positive) and withdrawals (negative) that
// enter the replayed state in (start, end], in both currencies.
//
// An entry enters the state at its effective date or at the latest effective
// date before it in canonical order, whichever is later. This keeps the flows
// consistent with ledger.Replay, which stops at the first entry past a cutoff.
func ExternalFlows(txs []model.Transaction, start, end time.Time) (flowsTRY, flowsUSD []CashFlow) {
	var visible time.Time
	for _, tx := range ledger.Sorted(txs) {
		if eff := tx.EffectiveDate(); eff.After(visible) {
			visible = eff
		}
		if visible.After(end) {
			break
		}
		if !visible.After(start) {
			continue
		}
		var sign decimal.Decimal
		switch tx.Type {
		case model.TxDeposit:
			sign = decimal.NewFromInt(1)
		case model.TxWithdraw:
			sign = decimal.NewFromInt(-1)
		default:
			continue
		}
		flowsTRY = append(flowsTRY, CashFlow{Date: visible, Amount: tx.AmountTRY.Mul(sign)})
		flowsUSD = append(flowsUSD, CashFlow{Date: visible, Amount: tx.AmountUSD.Mul(sign)})
	}
	return flowsTRY, flowsUSD
}
