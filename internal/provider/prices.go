package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// CachedPrices caches a PriceProvider. Live quotes live for the TTL and past
// closes are kept without expiration.
type CachedPrices struct {
	upstream PriceProvider
	ttl      time.Duration
	cache    *ttlCache[model.Quote]
	now      func() time.Time
	log      zerolog.Logger
}

// NewCachedPrices wraps upstream with a TTL cache.
func NewCachedPrices(upstream PriceProvider, ttl time.Duration, log zerolog.Logger) *CachedPrices {
	return &CachedPrices{
		upstream: upstream,
		ttl:      ttl,
		cache:    newTTLCache[model.Quote](ttl),
		now:      time.Now,
		log:      log.With().Str("component", "price_cache").Logger(),
	}
}

// LivePrice returns the cached or freshly fetched live quote of symbol.
func (c *CachedPrices) LivePrice(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = strings.ToUpper(symbol)
	q, cached, stale, err := c.cache.get(ctx, "live:"+symbol, c.ttl, func(ctx context.Context) (model.Quote, error) {
		return c.upstream.LivePrice(ctx, symbol)
	})
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("live price unavailable")
		return model.Quote{}, fmt.Errorf("%w: price of %s: %v", apperrors.ErrProviderDegraded, symbol, err)
	}
	return tagQuote(q, cached, stale), nil
}

// HistoricalPrice returns the cached or freshly fetched close of symbol on date.
func (c *CachedPrices) HistoricalPrice(ctx context.Context, symbol string, date time.Time) (model.Quote, error) {
	symbol = strings.ToUpper(symbol)
	day := date.UTC().Truncate(24 * time.Hour)

	ttl := cache.NoExpiration
	if !day.Before(c.now().UTC().Truncate(24 * time.Hour)) {
		ttl = c.ttl
	}

	key := "hist:" + symbol + ":" + day.Format("2006-01-02")
	q, cached, stale, err := c.cache.get(ctx, key, ttl, func(ctx context.Context) (model.Quote, error) {
		return c.upstream.HistoricalPrice(ctx, symbol, day)
	})
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Time("date", day).Msg("historical price unavailable")
		return model.Quote{}, fmt.Errorf("%w: price of %s on %s: %v", apperrors.ErrProviderDegraded, symbol, day.Format("2006-01-02"), err)
	}
	return tagQuote(q, cached, stale), nil
}

func tagQuote(q model.Quote, cached, stale bool) model.Quote {
	switch {
	case stale:
		q.Source = model.SourceStale
	case cached:
		q.Source = model.SourceCache
	}
	return q
}
