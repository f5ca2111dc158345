// Package yahoo fetches quotes and USD/TRY rates from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 2 // requests per second

	// USDTRYSymbol is the Yahoo ticker quoting TRY per USD.
	USDTRYSymbol = "TRY=X"
)

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
type FinanceClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*FinanceClient)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *FinanceClient) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *FinanceClient) {
		c.log = log
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *FinanceClient) {
		burst := max(1, int(requestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *FinanceClient) {
		c.httpClient.Timeout = timeout
	}
}

// NewFinanceClient creates a new Yahoo Finance client.
func NewFinanceClient(opts ...ClientOption) *FinanceClient {
	c := &FinanceClient{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ParseChart converts a raw chart response into a close series.
// Days without a close (market holidays, partial data) are skipped.
func (c *FinanceClient) ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("no results returned")
	}
	result := yahooResult.Chart.Result[0]

	chart := PriceChart{
		Symbol:      result.Meta.Symbol,
		Currency:    result.Meta.Currency,
		MarketPrice: result.Meta.RegularMarketPrice,
	}
	if result.Meta.RegularMarketTime > 0 {
		chart.MarketTime = time.Unix(result.Meta.RegularMarketTime, 0).UTC()
	}

	if len(result.Indicators.Quote) > 0 {
		closes := result.Indicators.Quote[0].Close
		if len(closes) != len(result.Timestamp) {
			return PriceChart{}, fmt.Errorf("mismatched data lengths")
		}
		for i, ts := range result.Timestamp {
			if closes[i] == nil || *closes[i] <= 0 {
				continue
			}
			chart.Closes = append(chart.Closes, Close{Date: time.Unix(ts, 0).UTC(), Price: *closes[i]})
		}
	}

	if chart.MarketPrice <= 0 && len(chart.Closes) == 0 {
		return PriceChart{}, fmt.Errorf("no price data returned")
	}
	return chart, nil
}

// CloseOn returns the last close on or before the end of target's day.
func (c PriceChart) CloseOn(target time.Time) (Close, bool) {
	cutoff := target.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	var found Close
	ok := false
	for _, cl := range c.Closes {
		if cl.Date.Before(cutoff) {
			found = cl
			ok = true
		}
	}
	return found, ok
}

// QueryRecent fetches the last 5 days of daily price data for a symbol.
func (c *FinanceClient) QueryRecent(ctx context.Context, symbol string) (Response, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "5d")
	return c.queryChart(ctx, symbol, params)
}

// QueryRange fetches daily price data for a symbol within a date range.
func (c *FinanceClient) QueryRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", fmt.Sprintf("%d", startDate.Unix()))
	params.Set("period2", fmt.Sprintf("%d", endDate.Unix()))
	return c.queryChart(ctx, symbol, params)
}

func (c *FinanceClient) queryChart(ctx context.Context, symbol string, params url.Values) (Response, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	result, err := c.queryYahoo(ctx, reqURL)
	if err != nil {
		return Response{}, err
	}
	if len(result.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	return result, nil
}

// queryYahoo executes a rate-limited request against the chart API.
func (c *FinanceClient) queryYahoo(ctx context.Context, reqURL string) (Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("yahoo request")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, fmt.Errorf("failed to decode yahoo response (status %d): %w", resp.StatusCode, err)
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return response, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}

	return response, nil
}
