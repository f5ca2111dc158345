// Package bls fetches the US CPI-U series from the Bureau of Labor Statistics
// and the Cleveland Fed inflation expectation.
package bls

import (
	"bytes"
	"cmp"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

const (
	DefaultBaseURL         = "https://api.bls.gov/publicAPI/v2/timeseries/data/"
	DefaultExpectationsURL = "https://www.clevelandfed.org/api/InflationExpectation/csv"
	DefaultSeriesID        = "CUSR0000SA0"
	DefaultTimeout         = 15 * time.Second
	DefaultRateLimit       = 1 // requests per second

	// ExpectationSource tags expectations read from the Cleveland Fed.
	ExpectationSource = "cleveland_fed"

	historyYears = 5
)

// quarterMonths maps the last month of each quarter to its quarter.
var quarterMonths = map[string]int{"M03": 1, "M06": 2, "M09": 3, "M12": 4}

// Client provides the quarterly CPI series and the current expectation.
type Client struct {
	baseURL         string
	expectationsURL string
	seriesID        string
	httpClient      *http.Client
	limiter         *rate.Limiter
	now             func() time.Time
	log             zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the timeseries endpoint
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithExpectationsURL sets the expectations CSV endpoint
func WithExpectationsURL(u string) ClientOption {
	return func(c *Client) {
		c.expectationsURL = u
	}
}

// WithSeriesID sets the CPI series
func WithSeriesID(id string) ClientOption {
	return func(c *Client) {
		c.seriesID = id
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		burst := max(1, int(requestsPerSecond))
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock sets the clock used to pick the requested years
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new BLS client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		expectationsURL: DefaultExpectationsURL,
		seriesID:        DefaultSeriesID,
		httpClient:      &http.Client{Timeout: DefaultTimeout},
		limiter:         rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		now:             time.Now,
		log:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// QuarterlySeries fetches the last five years of monthly CPI and keeps the
// last month of each quarter, oldest first.
func (c *Client) QuarterlySeries(ctx context.Context) ([]model.CPIPoint, error) {
	end := c.now().UTC().Year()
	body, err := json.Marshal(seriesRequest{
		SeriesID:  []string{c.seriesID},
		StartYear: strconv.Itoa(end - historyYears),
		EndYear:   strconv.Itoa(end),
	})
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode bls response: %w", err)
	}
	return ParseSeries(resp)
}

// ParseSeries converts a timeseries response into quarterly points.
func ParseSeries(resp Response) ([]model.CPIPoint, error) {
	if resp.Status != "" && resp.Status != "REQUEST_SUCCEEDED" {
		return nil, fmt.Errorf("bls request failed: %s %s", resp.Status, strings.Join(resp.Message, "; "))
	}
	if len(resp.Results.Series) == 0 {
		return nil, fmt.Errorf("no series returned")
	}

	var points []model.CPIPoint
	for _, obs := range resp.Results.Series[0].Data {
		q, ok := quarterMonths[obs.Period]
		if !ok {
			continue
		}
		year, err := strconv.Atoi(obs.Year)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q: %w", obs.Year, err)
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for %s %s: %w", obs.Value, obs.Year, obs.Period, err)
		}
		points = append(points, model.CPIPoint{Year: year, Quarter: q, Value: value})
	}

	slices.SortFunc(points, func(a, b model.CPIPoint) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Quarter, b.Quarter))
	})
	return points, nil
}

// ExpectedCurrentQuarter reads the latest one-year expectation from the
// expectations CSV. It returns nil when the file has no data rows.
func (c *Client) ExpectedCurrentQuarter(ctx context.Context) (*model.Expectation, error) {
	data, err := c.do(ctx, http.MethodGet, c.expectationsURL, nil, "")
	if err != nil {
		return nil, err
	}
	return ParseExpectations(data)
}

// ParseExpectations takes the second column of the last data row as an
// annual rate in percent.
func ParseExpectations(data []byte) (*model.Expectation, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse expectations csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	last := records[len(records)-1]
	if len(last) < 2 {
		return nil, fmt.Errorf("expectations row has %d columns", len(last))
	}
	annual, err := strconv.ParseFloat(strings.TrimSpace(last[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid expectation %q: %w", last[1], err)
	}
	return &model.Expectation{AnnualRate: annual, Source: ExpectationSource}, nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, body io.Reader, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("bls request")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", reqURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
