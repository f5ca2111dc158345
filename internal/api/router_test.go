package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/middleware"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/config"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/testutil"
)

func setupRouter(t *testing.T) (http.Handler, string) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	p := testutil.NewProviders("30", time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC))
	svc := Services{
		System:    testutil.NewTestSystemService(t, db),
		Portfolio: testutil.NewTestPortfolioService(t, db),
		Ledger:    testutil.NewTestLedgerService(t, db, p),
		Report:    testutil.NewTestReportService(t, db, p),
	}
	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}}
	portfolio := testutil.CreatePortfolio(t, db, "Router")

	return NewRouter(svc, cfg, zerolog.Nop()), portfolio.ID
}

func TestRouter(t *testing.T) {
	router, portfolioID := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		owner  string
		body   string
		status int
	}{
		{"health needs no owner", http.MethodGet, "/api/system/health", "", "", http.StatusOK},
		{"portfolio routes need an owner", http.MethodGet, "/api/portfolio", "", "", http.StatusUnauthorized},
		{"list portfolios", http.MethodGet, "/api/portfolio", testutil.DefaultOwner, "", http.StatusOK},
		{"invalid portfolio id", http.MethodGet, "/api/portfolio/not-a-uuid", testutil.DefaultOwner, "", http.StatusBadRequest},
		{"other owner sees nothing", http.MethodGet, "/api/portfolio/" + portfolioID, "someone-else", "", http.StatusNotFound},
		{"get portfolio", http.MethodGet, "/api/portfolio/" + portfolioID, testutil.DefaultOwner, "", http.StatusOK},
		{"deposit", http.MethodPost, "/api/portfolio/" + portfolioID + "/deposit", testutil.DefaultOwner,
			`{"amount":"100","currency":"USD"}`, http.StatusCreated},
		{"rebuild", http.MethodPost, "/api/portfolio/" + portfolioID + "/rebuild", testutil.DefaultOwner, "", http.StatusOK},
		{"invalid transaction id", http.MethodDelete, "/api/portfolio/" + portfolioID + "/transactions/abc", testutil.DefaultOwner,
			"", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nothing", testutil.DefaultOwner, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.owner != "" {
				req.Header.Set(middleware.OwnerHeader, tt.owner)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}
