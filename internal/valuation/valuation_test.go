package valuation_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/ledger"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/valuation"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "expected %s, got %s", want, got)
}

func sampleState() ledger.State {
	s := ledger.NewState()
	s.CashTRY = d("4000")
	s.CashUSD = d("100")
	s.InterestTRY = d("2000")
	s.InterestUSD = d("50")
	s.Holdings["AAPL"] = ledger.Position{Quantity: d("2"), TotalCostUSD: d("300")}
	s.Holdings["THYAO.IS"] = ledger.Position{Quantity: d("10"), TotalCostUSD: d("80")}
	return s
}

// TestValue_FullPortfolio verifies cash, interest and holdings are combined
// in both currencies.
func TestValue_FullPortfolio(t *testing.T) {
	quotes := map[string]model.Quote{
		"AAPL":     {Symbol: "AAPL", Price: d("200"), Currency: model.USD, Source: model.SourceLive},
		"THYAO.IS": {Symbol: "THYAO.IS", Price: d("300"), Currency: model.TRY, Source: model.SourceLive},
	}

	v := valuation.Value(sampleState(), quotes, d("40"), nil)

	// USD: 100 + 4000/40 + 50 + 2000/40 + 2*200 + 10*300/40 = 100+100+50+50+400+75
	assertDec(t, "775", v.TotalUSD)
	assertDec(t, "31000", v.TotalTRY)
	assert.False(t, v.Degraded)
	require.Len(t, v.Holdings, 2)

	aapl := v.Holdings[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assertDec(t, "400", aapl.ValueUSD)
	assertDec(t, "100", aapl.UnrealizedUSD)
	assert.InDelta(t, 33.333, aapl.UnrealizedPct, 0.001)

	thy := v.Holdings[1]
	assertDec(t, "3000", thy.ValueTRY)
	assertDec(t, "75", thy.ValueUSD)
	assert.Equal(t, model.TRY, thy.PriceCurrency)
}

// TestValue_MissingPriceFallsBackToCost verifies valuation never fails on a
// provider outage.
//
// WHY: A missing quote must value the holding at its average cost and mark
// the valuation so callers can tag the result source.
func TestValue_MissingPriceFallsBackToCost(t *testing.T) {
	quotes := map[string]model.Quote{
		"AAPL": {Symbol: "AAPL", Price: d("200"), Currency: model.USD},
	}

	v := valuation.Value(sampleState(), quotes, d("40"), valuation.NewInclude("THYAO.IS"))

	require.Len(t, v.Holdings, 1)
	assert.Equal(t, model.SourceCostBasis, v.Holdings[0].PriceSource)
	assertDec(t, "80", v.TotalUSD)
	assertDec(t, "3200", v.TotalTRY)
	assert.True(t, v.Degraded)
}

func TestValue_Selective(t *testing.T) {
	quotes := map[string]model.Quote{
		"AAPL": {Symbol: "AAPL", Price: d("200"), Currency: model.USD},
	}

	tests := []struct {
		name    string
		include valuation.Include
		wantUSD string
	}{
		{"cash only", valuation.NewInclude("cash_try", "cash_usd"), "200"},
		{"interest usd", valuation.NewInclude("INTEREST_USD"), "50"},
		{"single symbol lower-case", valuation.NewInclude("aapl"), "400"},
		{"empty include means all", valuation.NewInclude(), "775"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := quotes
			if !tt.include.Selective() {
				quotes = map[string]model.Quote{
					"AAPL":     quotes["AAPL"],
					"THYAO.IS": {Price: d("300"), Currency: model.TRY},
				}
			}
			v := valuation.Value(sampleState(), quotes, d("40"), tt.include)
			assertDec(t, tt.wantUSD, v.TotalUSD)
		})
	}
}

func TestInclude_Items(t *testing.T) {
	in := valuation.NewInclude("thyao.is", "CASH_USD", "aapl", " ", "interest_try")
	assert.Equal(t, []string{"AAPL", "THYAO.IS", "cash_usd", "interest_try"}, in.Items())
	assert.Equal(t, in.Items(), in.Items())

	assert.Nil(t, valuation.NewInclude().Items())
	assert.Nil(t, valuation.NewInclude("", " ").Items())
}

type slowPrices struct {
	calls atomic.Int32
}

func (s *slowPrices) LivePrice(ctx context.Context, symbol string) (model.Quote, error) {
	s.calls.Add(1)
	if symbol == "SLOW" {
		<-ctx.Done()
		return model.Quote{}, ctx.Err()
	}
	if symbol == "BAD" {
		return model.Quote{}, errors.New("boom")
	}
	return model.Quote{Symbol: symbol, Price: d("10"), Currency: model.USD, Source: model.SourceLive}, nil
}

func (s *slowPrices) HistoricalPrice(ctx context.Context, symbol string, _ time.Time) (model.Quote, error) {
	q, err := s.LivePrice(ctx, symbol)
	q.Source = model.SourceHistorical
	return q, err
}

// TestFetchQuotes verifies parallel fetches degrade per symbol.
//
// WHY: One slow or failing symbol must not fail the whole valuation; it is
// simply absent so the holding falls back to cost basis.
func TestFetchQuotes(t *testing.T) {
	p := &slowPrices{}

	quotes := valuation.FetchQuotes(context.Background(), p, []string{"AAPL", "SLOW", "BAD", "MSFT"},
		time.Now(), true, 50*time.Millisecond, zerolog.Nop())

	assert.Len(t, quotes, 2)
	assert.Contains(t, quotes, "AAPL")
	assert.Contains(t, quotes, "MSFT")
	assert.Equal(t, int32(4), p.calls.Load())

	t.Run("historical mode", func(t *testing.T) {
		quotes := valuation.FetchQuotes(context.Background(), p, []string{"AAPL"},
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), false, time.Second, zerolog.Nop())
		assert.Equal(t, model.SourceHistorical, quotes["AAPL"].Source)
	})
}
