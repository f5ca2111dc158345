package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/repository"
)

// DefaultOwner is the owner used by builders unless overridden.
const DefaultOwner = "test-user"

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Custom Portfolio").
//	    WithOwner("alice").
//	    Build(t, db)
type PortfolioBuilder struct {
	ID    string
	Owner string
	Name  string
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:    MakeID(),
		Owner: DefaultOwner,
		Name:  MakePortfolioName("Test Portfolio"),
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithOwner sets a custom owner.
func (b *PortfolioBuilder) WithOwner(owner string) *PortfolioBuilder {
	b.Owner = owner
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	now := time.Now().UTC()
	p := model.Portfolio{
		ID:        b.ID,
		Owner:     b.Owner,
		Name:      b.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repository.NewPortfolioRepository(db).Create(context.Background(), &p); err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}
	return p
}

// CreatePortfolio creates a portfolio of DefaultOwner with the given name.
//
// Example usage:
//
//	portfolio := testutil.CreatePortfolio(t, db, "My Portfolio")
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// TransactionBuilder provides a fluent interface for raw ledger transactions.
// It writes straight to the log without validation, for tests that need a
// specific history.
//
// Example usage:
//
//	tx := testutil.NewTransaction(portfolio.ID, model.TxDeposit).
//	    WithAmounts("3000", "100", "30").
//	    WithCurrency(model.USD).
//	    WithDate(date).
//	    Build(t, db)
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder for portfolioID.
func NewTransaction(portfolioID string, kind model.TransactionType) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		ID:            MakeID(),
		PortfolioID:   portfolioID,
		Type:          kind,
		TradeCurrency: model.USD,
		CreatedAt:     time.Now().UTC(),
	}}
}

// WithAmounts sets the TRY amount, USD amount and the USD/TRY rate.
func (b *TransactionBuilder) WithAmounts(amountTRY, amountUSD, rate string) *TransactionBuilder {
	b.tx.AmountTRY = decimal.RequireFromString(amountTRY)
	b.tx.AmountUSD = decimal.RequireFromString(amountUSD)
	b.tx.USDTRYRate = decimal.RequireFromString(rate)
	return b
}

// WithTrade sets the symbol, quantity and unit price.
func (b *TransactionBuilder) WithTrade(symbol, quantity, price string) *TransactionBuilder {
	b.tx.Symbol = symbol
	b.tx.Quantity = decimal.RequireFromString(quantity)
	b.tx.Price = decimal.RequireFromString(price)
	return b
}

// WithCurrency sets the trade currency.
func (b *TransactionBuilder) WithCurrency(c model.Currency) *TransactionBuilder {
	b.tx.TradeCurrency = c
	return b
}

// WithDate sets the transaction date.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	d := date.UTC()
	b.tx.TransactionDate = &d
	return b
}

// WithCreatedAt sets the insertion time.
func (b *TransactionBuilder) WithCreatedAt(at time.Time) *TransactionBuilder {
	b.tx.CreatedAt = at.UTC()
	return b
}

// Build appends the transaction to the log and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	tx := b.tx
	if err := repository.NewTransactionRepository(db).Append(context.Background(), &tx); err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return tx
}

// Dec parses a decimal literal, failing the test on malformed input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Invalid decimal %q: %v", s, err)
	}
	return d
}

// DecPtr is Dec returning a pointer, for optional request fields.
func DecPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()

	d := Dec(t, s)
	return &d
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
