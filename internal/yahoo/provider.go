package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// LivePrice returns the regular market price of symbol, or the latest close
// when the market price is missing.
func (c *FinanceClient) LivePrice(ctx context.Context, symbol string) (model.Quote, error) {
	resp, err := c.QueryRecent(ctx, symbol)
	if err != nil {
		return model.Quote{}, err
	}
	chart, err := c.ParseChart(resp)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}

	price, ts := chart.MarketPrice, chart.MarketTime
	if price <= 0 {
		last := chart.Closes[len(chart.Closes)-1]
		price, ts = last.Price, last.Date
	}

	return model.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(price),
		Currency:  model.QuoteCurrency(symbol),
		Timestamp: ts,
		Source:    model.SourceLive,
	}, nil
}

// HistoricalPrice returns the close of symbol on date, or the last close
// before it within a week (weekends and holidays).
func (c *FinanceClient) HistoricalPrice(ctx context.Context, symbol string, date time.Time) (model.Quote, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	resp, err := c.QueryRange(ctx, symbol, day.AddDate(0, 0, -7), day.Add(24*time.Hour))
	if err != nil {
		return model.Quote{}, err
	}
	chart, err := c.ParseChart(resp)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%s: %w", symbol, err)
	}

	cl, ok := chart.CloseOn(day)
	if !ok {
		return model.Quote{}, fmt.Errorf("no close for %s on or before %s", symbol, day.Format("2006-01-02"))
	}

	return model.Quote{
		Symbol:    symbol,
		Price:     decimal.NewFromFloat(cl.Price),
		Currency:  model.QuoteCurrency(symbol),
		Timestamp: cl.Date,
		Source:    model.SourceHistorical,
	}, nil
}

// CurrentUSDTRY returns the live USD/TRY rate.
func (c *FinanceClient) CurrentUSDTRY(ctx context.Context) (model.Rate, error) {
	q, err := c.LivePrice(ctx, USDTRYSymbol)
	if err != nil {
		return model.Rate{}, err
	}
	return model.Rate{Value: q.Price, Timestamp: q.Timestamp, Source: model.SourceLive}, nil
}

// HistoricalUSDTRY returns the USD/TRY close on date.
func (c *FinanceClient) HistoricalUSDTRY(ctx context.Context, date time.Time) (model.Rate, error) {
	q, err := c.HistoricalPrice(ctx, USDTRYSymbol, date)
	if err != nil {
		return model.Rate{}, err
	}
	return model.Rate{Value: q.Price, Timestamp: q.Timestamp, Source: model.SourceHistorical}, nil
}
