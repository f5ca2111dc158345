// Package tcmb reads indicative USD/TRY bank rates from the Central Bank of
// the Republic of Turkey daily bulletin.
package tcmb

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

const (
	DefaultURL       = "https://www.tcmb.gov.tr/kurlar/today.xml"
	DefaultTimeout   = 8 * time.Second
	DefaultRateLimit = 1 // requests per second

	// Source tags rates read from the bulletin.
	Source = "TCMB"
)

// Bulletin is the today.xml document.
type Bulletin struct {
	XMLName    xml.Name   `xml:"Tarih_Date"`
	Date       string     `xml:"Date,attr"`
	Currencies []Currency `xml:"Currency"`
}

// Currency is one currency row of the bulletin. Buying and selling are
// TRY per unit.
type Currency struct {
	Code         string `xml:"CurrencyCode,attr"`
	Kod          string `xml:"Kod,attr"`
	Unit         string `xml:"Unit"`
	ForexBuying  string `xml:"ForexBuying"`
	ForexSelling string `xml:"ForexSelling"`
}

// Client fetches the daily bulletin.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithURL sets the bulletin URL
func WithURL(u string) ClientOption {
	return func(c *Client) {
		c.url = u
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

// NewClient creates a new bulletin client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		url:        DefaultURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BankRates returns the USD forex buying and selling rates of today's bulletin.
func (c *Client) BankRates(ctx context.Context) (model.BankRates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.BankRates{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return model.BankRates{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.BankRates{}, err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", c.url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("tcmb request")

	if resp.StatusCode != http.StatusOK {
		return model.BankRates{}, fmt.Errorf("tcmb returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.BankRates{}, err
	}
	return ParseBulletin(data)
}

// ParseBulletin extracts the USD row of a bulletin.
func ParseBulletin(data []byte) (model.BankRates, error) {
	var b Bulletin
	if err := xml.Unmarshal(data, &b); err != nil {
		return model.BankRates{}, fmt.Errorf("failed to decode tcmb bulletin: %w", err)
	}

	for _, cur := range b.Currencies {
		if cur.Code != "USD" && cur.Kod != "USD" {
			continue
		}
		bid, err := decimal.NewFromString(strings.TrimSpace(cur.ForexBuying))
		if err != nil {
			return model.BankRates{}, fmt.Errorf("invalid USD buying rate %q: %w", cur.ForexBuying, err)
		}
		ask, err := decimal.NewFromString(strings.TrimSpace(cur.ForexSelling))
		if err != nil {
			return model.BankRates{}, fmt.Errorf("invalid USD selling rate %q: %w", cur.ForexSelling, err)
		}
		if !bid.IsPositive() || ask.LessThan(bid) {
			return model.BankRates{}, fmt.Errorf("implausible USD rates: buying %s, selling %s", bid, ask)
		}

		return model.BankRates{
			Buy:       bid.Round(4),
			Sell:      ask.Round(4),
			Mid:       bid.Add(ask).Div(decimal.NewFromInt(2)).Round(4),
			SpreadPct: ask.Sub(bid).Div(bid).Mul(decimal.NewFromInt(100)).Round(3).InexactFloat64(),
			Source:    Source,
		}, nil
	}
	return model.BankRates{}, fmt.Errorf("no USD row in tcmb bulletin")
}
