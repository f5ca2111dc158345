package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// day returns the Unix timestamp of 2024-03-<d> 14:30 UTC.
func day(d int) int64 {
	return time.Date(2024, 3, d, 14, 30, 0, 0, time.UTC).Unix()
}

func chartJSON(symbol string, marketPrice float64, stamps []int64, closes []string) string {
	ts := make([]string, len(stamps))
	for i, s := range stamps {
		ts[i] = fmt.Sprintf("%d", s)
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"currency":"USD","symbol":%q,"regularMarketPrice":%g,"regularMarketTime":%d},
		"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`,
		symbol, marketPrice, day(8), strings.Join(ts, ","), strings.Join(closes, ","))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *FinanceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFinanceClient(WithBaseURL(srv.URL), WithRateLimit(100))
}

func TestFinanceClient_LivePrice(t *testing.T) {
	t.Run("uses regular market price", func(t *testing.T) {
		var gotPath, gotRange string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotRange = r.URL.Query().Get("range")
			fmt.Fprint(w, chartJSON("AAPL", 189.5, []int64{day(6), day(7)}, []string{"187.1", "188.2"}))
		})

		q, err := c.LivePrice(context.Background(), "AAPL")
		require.NoError(t, err)

		assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
		assert.Equal(t, "5d", gotRange)
		assert.Equal(t, "189.5", q.Price.String())
		assert.Equal(t, "live", q.Source)
	})

	t.Run("falls back to latest close", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, chartJSON("THYAO.IS", 0, []int64{day(6), day(7)}, []string{"300.25", "null"}))
		})

		q, err := c.LivePrice(context.Background(), "THYAO.IS")
		require.NoError(t, err)
		assert.Equal(t, "300.25", q.Price.String())
		assert.Equal(t, "TRY", string(q.Currency))
	})

	t.Run("surfaces yahoo errors", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
		})

		_, err := c.LivePrice(context.Background(), "NOPE")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delisted")
	})
}

// TestFinanceClient_HistoricalPrice verifies the close lookup for a date.
//
// WHY: Period returns value the portfolio at past dates. Weekends have no
// close, so the previous trading day must be used.
func TestFinanceClient_HistoricalPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON("AAPL", 190, []int64{day(6), day(7), day(8)}, []string{"170", "171", "172"}))
	})

	t.Run("exact day", func(t *testing.T) {
		q, err := c.HistoricalPrice(context.Background(), "AAPL", time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "171", q.Price.String())
		assert.Equal(t, "historical", q.Source)
	})

	t.Run("weekend uses previous close", func(t *testing.T) {
		q, err := c.HistoricalPrice(context.Background(), "AAPL", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "172", q.Price.String())
	})

	t.Run("date before series fails", func(t *testing.T) {
		_, err := c.HistoricalPrice(context.Background(), "AAPL", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		assert.Error(t, err)
	})
}

func TestFinanceClient_USDTRY(t *testing.T) {
	var symbols []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		symbols = append(symbols, strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/"))
		fmt.Fprint(w, chartJSON("TRY=X", 32.15, []int64{day(7)}, []string{"32.01"}))
	})

	r, err := c.CurrentUSDTRY(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "32.15", r.Value.String())

	r, err = c.HistoricalUSDTRY(context.Background(), time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "32.01", r.Value.String())

	assert.Equal(t, []string{"TRY=X", "TRY=X"}, symbols)
}
