package service_test

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/request"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/service"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/testutil"
)

type reportFixture struct {
	ctx       context.Context
	db        *sql.DB
	reports   *service.ReportService
	providers *testutil.Providers
	portfolio model.Portfolio
}

// newReportFixture records a 1000 USD deposit on Jan 1 and a buy of 2 AAPL
// at 150 on Jan 2, both at rate 30.
func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	p := testutil.NewProviders("30", now)
	p.Prices.WithLive("AAPL", "200")

	f := &reportFixture{
		ctx:       context.Background(),
		db:        db,
		reports:   testutil.NewTestReportService(t, db, p),
		providers: p,
		portfolio: testutil.CreatePortfolio(t, db, "Reports"),
	}

	ledger := testutil.NewTestLedgerService(t, db, p)
	_, err := ledger.Deposit(f.ctx, testutil.DefaultOwner, f.portfolio.ID, request.DepositRequest{
		Amount: d("1000"), Currency: "USD", Rate: ptr("30"), Date: "2024-01-01",
	})
	require.NoError(t, err)
	_, err = ledger.Buy(f.ctx, testutil.DefaultOwner, f.portfolio.ID, request.TradeRequest{
		Symbol: "AAPL", Quantity: ptr("2"), Price: ptr("150"), Rate: ptr("30"), Date: "2024-01-02",
	})
	require.NoError(t, err)
	return f
}

func cpiSeries() []model.CPIPoint {
	return []model.CPIPoint{
		{Year: 2023, Quarter: 4, Value: 100},
		{Year: 2024, Quarter: 1, Value: 102},
		{Year: 2024, Quarter: 2, Value: 103.02},
	}
}

// TestReportService_GetSummary values the portfolio live.
//
// WHY: The summary combines the replayed state, live prices, net invested
// capital, the since-inception return and the inflation view.
func TestReportService_GetSummary(t *testing.T) {
	t.Run("nominal figures", func(t *testing.T) {
		f := newReportFixture(t)

		sum, err := f.reports.GetSummary(f.ctx, testutil.DefaultOwner, f.portfolio.ID)
		require.NoError(t, err)

		assertDec(t, "1100", sum.Valuation.TotalUSD, "total usd")
		assertDec(t, "33000", sum.Valuation.TotalTRY, "total try")
		assertDec(t, "1000", sum.NetInvested.USD, "net invested usd")
		assertDec(t, "100", sum.NominalUSD, "nominal usd")
		assertDec(t, "3000", sum.NominalTRY, "nominal try")
		require.Len(t, sum.Valuation.Holdings, 1)
		assertDec(t, "100", sum.Valuation.Holdings[0].UnrealizedUSD, "unrealized")

		require.NotNil(t, sum.Return)
		assert.InDelta(t, 10.0, sum.Return.USD.ReturnPct, 1e-9)
		assert.Greater(t, sum.AnnualizedUSD, 10.0)
		require.NotNil(t, sum.BankRates)
	})

	t.Run("without cpi data the real view falls back to nominal", func(t *testing.T) {
		f := newReportFixture(t)

		sum, err := f.reports.GetSummary(f.ctx, testutil.DefaultOwner, f.portfolio.ID)
		require.NoError(t, err)

		require.NotNil(t, sum.Inflation)
		assert.Equal(t, 1.0, sum.Inflation.Multiplier)
		assert.Equal(t, model.SourceFallback, sum.Inflation.Source)
		require.NotNil(t, sum.Real)
		assertDec(t, "1000", sum.Real.RequiredValue, "required")
		assertDec(t, "100", sum.Real.RealPnL, "real pnl")
		assert.Equal(t, model.SourceFallback, sum.ExpectedCPI.Source)
		assert.True(t, sum.Degraded)
	})

	t.Run("withdrawals do not lower the required value", func(t *testing.T) {
		f := newReportFixture(t)
		ledger := testutil.NewTestLedgerService(t, f.db, f.providers)
		_, err := ledger.Withdraw(f.ctx, testutil.DefaultOwner, f.portfolio.ID, request.WithdrawRequest{
			Amount: d("100"), Currency: "USD", Rate: ptr("30"),
		})
		require.NoError(t, err)

		sum, err := f.reports.GetSummary(f.ctx, testutil.DefaultOwner, f.portfolio.ID)
		require.NoError(t, err)

		assertDec(t, "1000", sum.Valuation.TotalUSD, "total usd")
		require.NotNil(t, sum.Real)
		assertDec(t, "1000", sum.Real.RequiredValue, "required")
		assertDec(t, "0", sum.Real.RealPnL, "real pnl")
	})

	t.Run("cpi series scales the opening value", func(t *testing.T) {
		f := newReportFixture(t)
		f.providers.CPI.Series = cpiSeries()

		sum, err := f.reports.GetSummary(f.ctx, testutil.DefaultOwner, f.portfolio.ID)
		require.NoError(t, err)

		want := 1.02 * math.Pow(1.01, 90.5/91)
		require.NotNil(t, sum.Inflation)
		assert.InDelta(t, want, sum.Inflation.Multiplier, 1e-9)
		assert.InDelta(t, 1/want, sum.Inflation.Erosion, 1e-9)
		assert.False(t, sum.Inflation.Estimated)
		assert.InDelta(t, 1000*want, sum.Real.RequiredValue.InexactFloat64(), 1e-6)
		assert.InDelta(t, (1100/(1000*want)-1)*100, sum.Real.RealReturnPct, 1e-6)
		assert.False(t, sum.Degraded)
	})

	t.Run("price outage degrades to cost basis", func(t *testing.T) {
		f := newReportFixture(t)
		f.providers.Prices.Fail = true

		sum, err := f.reports.GetSummary(f.ctx, testutil.DefaultOwner, f.portfolio.ID)
		require.NoError(t, err)
		assertDec(t, "1000", sum.Valuation.TotalUSD, "total usd")
		assert.Equal(t, model.SourceCostBasis, sum.Valuation.Holdings[0].PriceSource)
		assert.True(t, sum.Degraded)
	})

	t.Run("fx outage uses the ledger rate", func(t *testing.T) {
		f := newReportFixture(t)
		f.providers.Fx.SetFail(true)
		f.providers.Bank.Fail = true

		sum, err := f.reports.GetSummary(f.ctx, testutil.DefaultOwner, f.portfolio.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SourceFallback, sum.RateSource)
		assertDec(t, "30", sum.Valuation.FxRate, "fx")
		assert.Nil(t, sum.BankRates)
		assert.True(t, sum.Degraded)
	})

	t.Run("unknown portfolio", func(t *testing.T) {
		f := newReportFixture(t)

		_, err := f.reports.GetSummary(f.ctx, testutil.DefaultOwner, testutil.MakeID())
		assert.ErrorIs(t, err, apperrors.ErrPortfolioNotFound)
	})
}

// TestReportService_CalculatePeriodPnL resolves periods and components.
func TestReportService_CalculatePeriodPnL(t *testing.T) {
	f := newReportFixture(t)
	f.providers.Prices.
		WithClose("AAPL", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "160").
		WithClose("AAPL", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), "170")

	t.Run("explicit range", func(t *testing.T) {
		pnl, err := f.reports.CalculatePeriodPnL(f.ctx, testutil.DefaultOwner, f.portfolio.ID, service.PnLQuery{
			Start: "2024-03-01",
			End:   "2024-03-31",
		})
		require.NoError(t, err)
		assertDec(t, "1020", pnl.USD.StartValue, "start")
		assertDec(t, "1040", pnl.USD.EndValue, "end")
		assert.Equal(t, 30, pnl.Days)
		require.NotNil(t, pnl.Real)
	})

	t.Run("selective range has no real return", func(t *testing.T) {
		pnl, err := f.reports.CalculatePeriodPnL(f.ctx, testutil.DefaultOwner, f.portfolio.ID, service.PnLQuery{
			Start:   "2024-03-01",
			End:     "2024-03-31",
			Include: []string{"aapl"},
		})
		require.NoError(t, err)
		assert.True(t, pnl.Selective)
		assertDec(t, "20", pnl.USD.PnL, "pnl")
		assert.InDelta(t, 6.25, pnl.USD.ReturnPct, 1e-9)
		assert.Nil(t, pnl.Real)
	})

	t.Run("named period clamps to the first transaction", func(t *testing.T) {
		pnl, err := f.reports.CalculatePeriodPnL(f.ctx, testutil.DefaultOwner, f.portfolio.ID, service.PnLQuery{Period: "all"})
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01", pnl.Start.Format("2006-01-02"))
		assertDec(t, "100", pnl.USD.PnL, "pnl")
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name  string
			query service.PnLQuery
		}{
			{"unknown period", service.PnLQuery{Period: "2w"}},
			{"end before start", service.PnLQuery{Start: "2024-03-31", End: "2024-03-01"}},
			{"malformed date", service.PnLQuery{Start: "March", End: "2024-03-01"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.reports.CalculatePeriodPnL(f.ctx, testutil.DefaultOwner, f.portfolio.ID, tt.query)
				assert.ErrorIs(t, err, apperrors.ErrInvalidDateRange)
			})
		}
	})
}
