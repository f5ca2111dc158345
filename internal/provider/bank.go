package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

const bankRatesKey = "bank:usdtry"

// CachedBank caches indicative bank rates. When the upstream has no quote the
// mid rate from fx is widened by spread and tagged "estimated".
type CachedBank struct {
	upstream BankRateProvider
	fx       FxProvider
	spread   decimal.Decimal
	ttl      time.Duration
	cache    *ttlCache[model.BankRates]
	log      zerolog.Logger
}

// NewCachedBank wraps upstream with a TTL cache and a spread fallback over fx.
func NewCachedBank(upstream BankRateProvider, fx FxProvider, spread float64, ttl time.Duration, log zerolog.Logger) *CachedBank {
	return &CachedBank{
		upstream: upstream,
		fx:       fx,
		spread:   decimal.NewFromFloat(spread),
		ttl:      ttl,
		cache:    newTTLCache[model.BankRates](ttl),
		log:      log.With().Str("component", "bank_cache").Logger(),
	}
}

// BankRates returns the bank bid/ask for USD in TRY.
func (c *CachedBank) BankRates(ctx context.Context) (model.BankRates, error) {
	r, _, _, err := c.cache.get(ctx, bankRatesKey, c.ttl, c.fetch)
	if err != nil {
		return model.BankRates{}, fmt.Errorf("%w: bank rates: %v", apperrors.ErrProviderDegraded, err)
	}
	return r, nil
}

func (c *CachedBank) fetch(ctx context.Context) (model.BankRates, error) {
	if c.upstream != nil {
		r, err := c.upstream.BankRates(ctx)
		if err == nil {
			return r, nil
		}
		c.log.Warn().Err(err).Msg("bank rates unavailable, estimating from mid rate")
	}

	mid, err := c.fx.CurrentUSDTRY(ctx)
	if err != nil {
		return model.BankRates{}, err
	}
	return EstimateBankRates(mid.Value, c.spread), nil
}

// EstimateBankRates spreads mid symmetrically: buy = mid*(1-spread/2),
// sell = mid*(1+spread/2).
func EstimateBankRates(mid, spread decimal.Decimal) model.BankRates {
	half := spread.Div(decimal.NewFromInt(2))
	one := decimal.NewFromInt(1)
	return model.BankRates{
		Buy:       mid.Mul(one.Sub(half)).Round(4),
		Sell:      mid.Mul(one.Add(half)).Round(4),
		Mid:       mid.Round(4),
		SpreadPct: spread.InexactFloat64() * 100,
		Source:    model.SourceEstimated,
	}
}
