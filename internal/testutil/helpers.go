package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/inflation"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/repository"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/returns"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/service"
)

// Providers bundles the fake upstreams used by service constructors.
type Providers struct {
	Prices *FakePrices
	Fx     *FakeFx
	CPI    *FakeCPI
	Bank   *FakeBank
	Now    func() time.Time
}

// NewProviders returns fakes quoting USD/TRY at rate with no prices and an
// empty CPI series, on a clock fixed at now.
func NewProviders(rate string, now time.Time) *Providers {
	return &Providers{
		Prices: NewFakePrices(),
		Fx:     NewFakeFx(rate),
		CPI:    &FakeCPI{},
		Bank:   &FakeBank{Rates: model.BankRates{Source: model.SourceEstimated}},
		Now:    FixedClock(now),
	}
}

// NewTestLedgerService creates a LedgerService over db and the given fakes.
func NewTestLedgerService(t *testing.T, db *sql.DB, p *Providers) *service.LedgerService {
	t.Helper()

	return service.NewLedgerService(
		repository.NewStore(db),
		p.Prices,
		p.Fx,
		zerolog.Nop(),
		service.WithLedgerClock(p.Now),
		service.WithLedgerTimeout(time.Second),
	)
}

// NewTestPortfolioService creates a PortfolioService over db.
func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(repository.NewStore(db), time.Now, zerolog.Nop())
}

// NewTestReportService creates a ReportService over db and the given fakes.
func NewTestReportService(t *testing.T, db *sql.DB, p *Providers) *service.ReportService {
	t.Helper()

	calc := returns.NewCalculator(p.Prices, p.Fx, zerolog.Nop(),
		returns.WithClock(p.Now),
		returns.WithFetchTimeout(time.Second),
	)
	return service.NewReportService(
		repository.NewStore(db),
		calc,
		inflation.NewAdjuster(p.CPI, zerolog.Nop()),
		p.Bank,
		p.Now,
		zerolog.Nop(),
	)
}

// NewTestSystemService creates a SystemService over db.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
