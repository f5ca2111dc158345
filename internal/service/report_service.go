package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/inflation"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/provider"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/repository"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/returns"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/validation"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/valuation"
)

// ReportService computes read-only views of a portfolio: the live summary and
// period profit and loss. Provider failures degrade the result instead of
// failing the request.
type ReportService struct {
	store     *repository.Store
	calc      *returns.Calculator
	inflation *inflation.Adjuster
	bank      provider.BankRateProvider
	now       func() time.Time
	log       zerolog.Logger
}

// NewReportService creates a ReportService. bank may be nil.
func NewReportService(
	store *repository.Store,
	calc *returns.Calculator,
	adjuster *inflation.Adjuster,
	bank provider.BankRateProvider,
	now func() time.Time,
	log zerolog.Logger,
) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		store:     store,
		calc:      calc,
		inflation: adjuster,
		bank:      bank,
		now:       now,
		log:       log.With().Str("component", "report").Logger(),
	}
}

// NetInvested is deposits minus withdrawals, at the rates recorded on them.
type NetInvested struct {
	TRY decimal.Decimal `json:"try"`
	USD decimal.Decimal `json:"usd"`
}

// ExpectedInflation is the rate assumed for quarters without published CPI.
type ExpectedInflation struct {
	QuarterlyPct float64 `json:"quarterlyPct"`
	AnnualPct    float64 `json:"annualPct"`
	Source       string  `json:"source"`
}

// Summary is the live overview of a portfolio.
type Summary struct {
	Portfolio   model.Portfolio     `json:"portfolio"`
	AsOf        time.Time           `json:"asOf"`
	RateSource  string              `json:"rateSource"`
	Valuation   valuation.Valuation `json:"valuation"`
	NetInvested NetInvested         `json:"netInvested"`
	NominalTRY  decimal.Decimal     `json:"nominalPnlTry"`
	NominalUSD  decimal.Decimal     `json:"nominalPnlUsd"`

	// Since-inception Modified Dietz returns, nil for an empty ledger.
	Return        *returns.PnL          `json:"return,omitempty"`
	AnnualizedTRY float64               `json:"annualizedTryPct"`
	AnnualizedUSD float64               `json:"annualizedUsdPct"`
	Inflation     *inflation.Result     `json:"inflation,omitempty"`
	Real          *inflation.RealReturn `json:"real,omitempty"`
	ExpectedCPI   ExpectedInflation     `json:"expectedCpi"`
	BankRates     *model.BankRates      `json:"bankRates,omitempty"`
	Degraded      bool                  `json:"degraded"`
}

// PnLQuery selects the range and components of a period P&L. Start and End
// take precedence over Period; with neither the whole history is used.
type PnLQuery struct {
	Period  string
	Start   string
	End     string
	Include []string
}

// PeriodPnL is the return between two dates with its inflation-adjusted view.
type PeriodPnL struct {
	returns.PnL
	AnnualizedTRY float64               `json:"annualizedTryPct"`
	AnnualizedUSD float64               `json:"annualizedUsdPct"`
	Real          *inflation.RealReturn `json:"real,omitempty"`
	Degraded      bool                  `json:"degraded"`
}

// GetSummary values the portfolio now and reports nominal and real performance.
func (s *ReportService) GetSummary(ctx context.Context, owner, portfolioID string) (*Summary, error) {
	p, err := s.store.LoadPortfolio(ctx, owner, portfolioID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snap := s.calc.Snapshot(ctx, txs, now, nil)

	sum := &Summary{
		Portfolio:  *p,
		AsOf:       now,
		RateSource: snap.RateSource,
		Valuation:  roundValuation(snap.Valuation),
		Degraded:   snap.Valuation.Degraded || snap.RateSource == model.SourceFallback,
	}

	flowsTRY, flowsUSD := returns.ExternalFlows(txs, time.Time{}, now)
	sum.NetInvested = NetInvested{TRY: total(flowsTRY).Round(tryPlaces), USD: total(flowsUSD).Round(usdPlaces)}
	sum.NominalTRY = sum.Valuation.TotalTRY.Sub(sum.NetInvested.TRY).Round(tryPlaces)
	sum.NominalUSD = sum.Valuation.TotalUSD.Sub(sum.NetInvested.USD).Round(usdPlaces)

	if first, ok := returns.FirstEffectiveDate(txs); ok && now.After(first) {
		pnl, err := s.calc.PeriodReturn(ctx, txs, first, now, nil)
		if err == nil {
			sum.Return = &pnl
			sum.AnnualizedTRY = returns.Annualize(pnl.TRY.ReturnPct, pnl.Days)
			sum.AnnualizedUSD = returns.Annualize(pnl.USD.ReturnPct, pnl.Days)
			rr := s.inflation.RealReturn(ctx, realFlows(pnl), pnl.USD.EndValue, now)
			sum.Real = &rr
		} else {
			s.log.Warn().Err(err).Str("portfolio_id", p.ID).Msg("since-inception return unavailable")
		}

		if res, err := s.inflation.Multiplier(ctx, first, now); err == nil {
			sum.Inflation = &res
			if res.Source == model.SourceFallback {
				sum.Degraded = true
			}
		}
	}

	q, src := s.inflation.ExpectedQuarterlyRate(ctx)
	sum.ExpectedCPI = ExpectedInflation{
		QuarterlyPct: q * 100,
		AnnualPct:    (math.Pow(1+q, 4) - 1) * 100,
		Source:       src,
	}

	if s.bank != nil {
		br, err := s.bank.BankRates(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("bank rates unavailable")
			sum.Degraded = true
		} else {
			sum.BankRates = &br
		}
	}

	return sum, nil
}

// CalculatePeriodPnL computes the return over a named or explicit period,
// optionally restricted to some components. Restricted results report the
// simple change in value and carry no real return.
func (s *ReportService) CalculatePeriodPnL(ctx context.Context, owner, portfolioID string, q PnLQuery) (*PeriodPnL, error) {
	start, end, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}

	p, err := s.store.LoadPortfolio(ctx, owner, portfolioID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	pnl, err := s.calc.PeriodReturn(ctx, txs, start, end, valuation.NewInclude(q.Include...))
	if err != nil {
		return nil, err
	}

	out := &PeriodPnL{
		PnL:           pnl,
		AnnualizedTRY: returns.Annualize(pnl.TRY.ReturnPct, pnl.Days),
		AnnualizedUSD: returns.Annualize(pnl.USD.ReturnPct, pnl.Days),
		Degraded: pnl.StartSnap.Valuation.Degraded || pnl.EndSnap.Valuation.Degraded ||
			pnl.StartSnap.RateSource == model.SourceFallback || pnl.EndSnap.RateSource == model.SourceFallback,
	}
	if !pnl.Selective {
		rr := s.inflation.RealReturn(ctx, realFlows(pnl), pnl.USD.EndValue, pnl.End)
		out.Real = &rr
	}
	return out, nil
}

func (s *ReportService) resolveRange(q PnLQuery) (time.Time, time.Time, error) {
	if strings.TrimSpace(q.Start) != "" || strings.TrimSpace(q.End) != "" {
		end := q.End
		if strings.TrimSpace(end) == "" {
			end = s.now().UTC().Format(time.RFC3339)
		}
		return validation.ParseRange(q.Start, end)
	}
	period := q.Period
	if strings.TrimSpace(period) == "" {
		period = returns.PeriodAll
	}
	return returns.ResolvePeriod(period, s.now())
}

// realFlows treats the opening USD value as an inflow at the start followed by
// the deposits of the period. Withdrawals are left out: the required value is
// the purchasing power of what was put in.
func realFlows(p returns.PnL) []returns.CashFlow {
	flows := make([]returns.CashFlow, 0, len(p.FlowsUSD)+1)
	if p.USD.StartValue.IsPositive() {
		flows = append(flows, returns.CashFlow{Date: p.Start, Amount: p.USD.StartValue})
	}
	for _, f := range p.FlowsUSD {
		if f.Amount.IsPositive() {
			flows = append(flows, f)
		}
	}
	return flows
}

func total(flows []returns.CashFlow) decimal.Decimal {
	sum := decimal.Zero
	for _, f := range flows {
		sum = sum.Add(f.Amount)
	}
	return sum
}

func roundValuation(v valuation.Valuation) valuation.Valuation {
	v.CashTRY = v.CashTRY.Round(tryPlaces)
	v.CashUSD = v.CashUSD.Round(usdPlaces)
	v.InterestTRY = v.InterestTRY.Round(tryPlaces)
	v.InterestUSD = v.InterestUSD.Round(usdPlaces)
	v.TotalTRY = v.TotalTRY.Round(tryPlaces)
	v.TotalUSD = v.TotalUSD.Round(usdPlaces)
	for i := range v.Holdings {
		h := &v.Holdings[i]
		h.ValueTRY = h.ValueTRY.Round(tryPlaces)
		h.ValueUSD = h.ValueUSD.Round(usdPlaces)
		h.UnrealizedUSD = h.UnrealizedUSD.Round(usdPlaces)
	}
	return v
}
