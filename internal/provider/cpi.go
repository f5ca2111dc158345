package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

const (
	cpiSeriesKey   = "cpi:series"
	cpiExpectedKey = "cpi:expected"
)

// CachedCPI caches a CPIProvider. Both the series and the expectation are
// refreshed at most once per TTL.
type CachedCPI struct {
	upstream CPIProvider
	ttl      time.Duration
	series   *ttlCache[[]model.CPIPoint]
	expected *ttlCache[*model.Expectation]
	log      zerolog.Logger
}

// NewCachedCPI wraps upstream with a TTL cache.
func NewCachedCPI(upstream CPIProvider, ttl time.Duration, log zerolog.Logger) *CachedCPI {
	return &CachedCPI{
		upstream: upstream,
		ttl:      ttl,
		series:   newTTLCache[[]model.CPIPoint](ttl),
		expected: newTTLCache[*model.Expectation](ttl),
		log:      log.With().Str("component", "cpi_cache").Logger(),
	}
}

// QuarterlySeries returns the cached or freshly fetched CPI series.
func (c *CachedCPI) QuarterlySeries(ctx context.Context) ([]model.CPIPoint, error) {
	s, _, stale, err := c.series.get(ctx, cpiSeriesKey, c.ttl, c.upstream.QuarterlySeries)
	if err != nil {
		c.log.Warn().Err(err).Msg("cpi series unavailable")
		return nil, fmt.Errorf("%w: cpi series: %v", apperrors.ErrProviderDegraded, err)
	}
	if stale {
		c.log.Warn().Int("points", len(s)).Msg("serving last known cpi series")
	}
	return s, nil
}

// ExpectedCurrentQuarter returns the cached or freshly fetched expectation.
func (c *CachedCPI) ExpectedCurrentQuarter(ctx context.Context) (*model.Expectation, error) {
	e, _, _, err := c.expected.get(ctx, cpiExpectedKey, c.ttl, c.upstream.ExpectedCurrentQuarter)
	if err != nil {
		c.log.Warn().Err(err).Msg("cpi expectation unavailable")
		return nil, fmt.Errorf("%w: cpi expectation: %v", apperrors.ErrProviderDegraded, err)
	}
	return e, nil
}

// Refresh drops cached entries and fetches both again.
func (c *CachedCPI) Refresh(ctx context.Context) error {
	c.series.flush()
	c.expected.flush()
	if _, err := c.QuarterlySeries(ctx); err != nil {
		return err
	}
	_, err := c.ExpectedCurrentQuarter(ctx)
	return err
}
