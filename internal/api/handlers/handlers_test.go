package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/middleware"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/testutil"
)

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

type handlerEnv struct {
	portfolios   *PortfolioHandler
	transactions *TransactionHandler
	providers    *testutil.Providers
	portfolio    model.Portfolio
}

func setupHandlers(t *testing.T) *handlerEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	p := testutil.NewProviders("30", testNow)
	portfolioSvc := testutil.NewTestPortfolioService(t, db)

	return &handlerEnv{
		portfolios:   NewPortfolioHandler(portfolioSvc, testutil.NewTestReportService(t, db, p)),
		transactions: NewTransactionHandler(testutil.NewTestLedgerService(t, db, p), portfolioSvc),
		providers:    p,
		portfolio:    testutil.CreatePortfolio(t, db, "Handlers"),
	}
}

// asOwner attaches the default test owner as RequireOwner would.
func asOwner(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithOwner(req.Context(), testutil.DefaultOwner))
}
