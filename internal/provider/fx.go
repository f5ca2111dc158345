package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

const currentRateKey = "usdtry:current"

// CachedFx caches an FxProvider. Current rates live for the TTL; closes of
// past days never change and are kept without expiration.
type CachedFx struct {
	upstream FxProvider
	ttl      time.Duration
	cache    *ttlCache[model.Rate]
	now      func() time.Time
	log      zerolog.Logger
}

// NewCachedFx wraps upstream with a TTL cache.
func NewCachedFx(upstream FxProvider, ttl time.Duration, log zerolog.Logger) *CachedFx {
	return &CachedFx{
		upstream: upstream,
		ttl:      ttl,
		cache:    newTTLCache[model.Rate](ttl),
		now:      time.Now,
		log:      log.With().Str("component", "fx_cache").Logger(),
	}
}

// CurrentUSDTRY returns the cached or freshly fetched current rate. When the
// upstream fails the last known rate is returned tagged stale_cache.
func (c *CachedFx) CurrentUSDTRY(ctx context.Context) (model.Rate, error) {
	r, cached, stale, err := c.cache.get(ctx, currentRateKey, c.ttl, c.upstream.CurrentUSDTRY)
	if err != nil {
		c.log.Warn().Err(err).Msg("usd/try rate unavailable")
		return model.Rate{}, fmt.Errorf("%w: usd/try rate: %v", apperrors.ErrProviderDegraded, err)
	}
	return tagRate(r, cached, stale, c.log), nil
}

// HistoricalUSDTRY returns the cached or freshly fetched close for date.
func (c *CachedFx) HistoricalUSDTRY(ctx context.Context, date time.Time) (model.Rate, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	key := "usdtry:" + day.Format("2006-01-02")

	ttl := cache.NoExpiration
	if !day.Before(c.now().UTC().Truncate(24 * time.Hour)) {
		ttl = c.ttl
	}

	r, cached, stale, err := c.cache.get(ctx, key, ttl, func(ctx context.Context) (model.Rate, error) {
		return c.upstream.HistoricalUSDTRY(ctx, day)
	})
	if err != nil {
		c.log.Warn().Err(err).Time("date", day).Msg("historical usd/try rate unavailable")
		return model.Rate{}, fmt.Errorf("%w: usd/try rate on %s: %v", apperrors.ErrProviderDegraded, day.Format("2006-01-02"), err)
	}
	return tagRate(r, cached, stale, c.log), nil
}

// LastKnownUSDTRY returns the most recent current rate seen, if any.
func (c *CachedFx) LastKnownUSDTRY() (model.Rate, bool) {
	return c.cache.peek(currentRateKey)
}

// Refresh drops the fresh entry and fetches the current rate again.
func (c *CachedFx) Refresh(ctx context.Context) error {
	c.cache.fresh.Delete(currentRateKey)
	_, err := c.CurrentUSDTRY(ctx)
	return err
}

func tagRate(r model.Rate, cached, stale bool, log zerolog.Logger) model.Rate {
	switch {
	case stale:
		log.Warn().Str("rate", r.Value.String()).Msg("serving last known usd/try rate")
		r.Source = model.SourceStale
	case cached:
		r.Source = model.SourceCache
	}
	return r
}
