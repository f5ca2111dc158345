package tcmb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bulletin = `<?xml version="1.0" encoding="UTF-8"?>
<Tarih_Date Tarih="15.05.2024" Date="05/15/2024" Bulten_No="2024/92">
  <Currency CrossOrder="0" Kod="USD" CurrencyCode="USD">
    <Unit>1</Unit>
    <Isim>ABD DOLARI</Isim>
    <CurrencyName>US DOLLAR</CurrencyName>
    <ForexBuying>32.2000</ForexBuying>
    <ForexSelling>32.2580</ForexSelling>
  </Currency>
  <Currency CrossOrder="1" Kod="AUD" CurrencyCode="AUD">
    <Unit>1</Unit>
    <ForexBuying>21.3941</ForexBuying>
    <ForexSelling>21.5336</ForexSelling>
  </Currency>
</Tarih_Date>`

func TestBankRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(bulletin))
	}))
	defer srv.Close()

	c := NewClient(WithURL(srv.URL), WithRateLimit(100))

	r, err := c.BankRates(context.Background())
	require.NoError(t, err)

	assert.True(t, r.Buy.Equal(decimal.RequireFromString("32.2")))
	assert.True(t, r.Sell.Equal(decimal.RequireFromString("32.258")))
	assert.True(t, r.Mid.Equal(decimal.RequireFromString("32.229")))
	assert.InDelta(t, 0.18, r.SpreadPct, 1e-9)
	assert.Equal(t, Source, r.Source)
}

func TestParseBulletin_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not xml", "<html>"},
		{"no usd row", `<Tarih_Date><Currency Kod="EUR" CurrencyCode="EUR"><ForexBuying>35</ForexBuying><ForexSelling>35.1</ForexSelling></Currency></Tarih_Date>`},
		{"empty rate", `<Tarih_Date><Currency Kod="USD" CurrencyCode="USD"><ForexBuying></ForexBuying><ForexSelling>32</ForexSelling></Currency></Tarih_Date>`},
		{"selling below buying", `<Tarih_Date><Currency Kod="USD" CurrencyCode="USD"><ForexBuying>32</ForexBuying><ForexSelling>31</ForexSelling></Currency></Tarih_Date>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBulletin([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestBankRates_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithURL(srv.URL), WithRateLimit(100))

	_, err := c.BankRates(context.Background())
	assert.Error(t, err)
}
