package valuation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/provider"
)

// FetchQuotes fetches prices for symbols in parallel, each call bounded by
// timeout. Live quotes are used when live is set, otherwise closes on at.
// Failed or timed-out symbols are left out of the result so Value falls
// back to cost basis for them.
func FetchQuotes(ctx context.Context, prices provider.PriceProvider, symbols []string, at time.Time, live bool, timeout time.Duration, log zerolog.Logger) map[string]model.Quote {
	quotes := make(map[string]model.Quote, len(symbols))
	if prices == nil || len(symbols) == 0 {
		return quotes
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, sym := range symbols {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			var q model.Quote
			var err error
			if live {
				q, err = prices.LivePrice(cctx, sym)
			} else {
				q, err = prices.HistoricalPrice(cctx, sym, at)
			}
			if err != nil {
				log.Warn().Err(err).Str("symbol", sym).Time("at", at).Msg("price unavailable, using cost basis")
				return nil
			}

			mu.Lock()
			quotes[sym] = q
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return quotes
}
