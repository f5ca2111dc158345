package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// Store is the ledger storage contract: portfolios, their append-only
// transaction log and the derived holdings.
type Store struct {
	db           *sql.DB
	portfolios   *PortfolioRepository
	transactions *TransactionRepository
	holdings     *HoldingRepository
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		portfolios:   NewPortfolioRepository(db),
		transactions: NewTransactionRepository(db),
		holdings:     NewHoldingRepository(db),
	}
}

// InTx runs fn with a Store scoped to one database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(*Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	scoped := &Store{
		db:           s.db,
		portfolios:   s.portfolios.WithTx(tx),
		transactions: s.transactions.WithTx(tx),
		holdings:     s.holdings.WithTx(tx),
	}

	if err := fn(scoped); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreatePortfolio inserts a new portfolio.
func (s *Store) CreatePortfolio(ctx context.Context, p *model.Portfolio) error {
	return s.portfolios.Create(ctx, p)
}

// LoadPortfolio loads one portfolio of owner.
func (s *Store) LoadPortfolio(ctx context.Context, owner, id string) (*model.Portfolio, error) {
	return s.portfolios.Get(ctx, owner, id)
}

// ListPortfolios lists the portfolios of owner.
func (s *Store) ListPortfolios(ctx context.Context, owner string) ([]model.Portfolio, error) {
	return s.portfolios.ListByOwner(ctx, owner)
}

// SavePortfolio writes the cached balances of p.
func (s *Store) SavePortfolio(ctx context.Context, p *model.Portfolio) error {
	return s.portfolios.Save(ctx, p)
}

// AppendTransaction appends t to its portfolio's log.
func (s *Store) AppendTransaction(ctx context.Context, t *model.Transaction) error {
	return s.transactions.Append(ctx, t)
}

// DeleteTransaction removes one transaction from a portfolio's log.
func (s *Store) DeleteTransaction(ctx context.Context, portfolioID, id string) error {
	return s.transactions.Delete(ctx, portfolioID, id)
}

// ListTransactions returns the full log of a portfolio in canonical order.
func (s *Store) ListTransactions(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	return s.transactions.List(ctx, portfolioID)
}

// RecentTransactions returns transactions most recently inserted first.
func (s *Store) RecentTransactions(ctx context.Context, portfolioID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	return s.transactions.ListRecent(ctx, portfolioID, filter)
}

// ListHoldings returns the cached holdings of a portfolio.
func (s *Store) ListHoldings(ctx context.Context, portfolioID string) ([]model.Holding, error) {
	return s.holdings.List(ctx, portfolioID)
}

// ReplaceHoldings rewrites the cached holdings of a portfolio.
func (s *Store) ReplaceHoldings(ctx context.Context, portfolioID string, holdings []model.Holding) error {
	return s.holdings.Replace(ctx, portfolioID, holdings)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
