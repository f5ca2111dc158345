package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/request"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/repository"
)

// defaultTransactionLimit caps transaction listings without an explicit limit.
const defaultTransactionLimit = 100

// PortfolioService handles portfolio lifecycle and read-only listings.
type PortfolioService struct {
	store *repository.Store
	now   func() time.Time
	log   zerolog.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(store *repository.Store, now func() time.Time, log zerolog.Logger) *PortfolioService {
	if now == nil {
		now = time.Now
	}
	return &PortfolioService{store: store, now: now, log: log}
}

// PortfolioDetail is a portfolio with its derived holdings.
type PortfolioDetail struct {
	model.Portfolio
	Holdings []model.Holding `json:"holdings"`
}

// CreatePortfolio creates an empty portfolio for owner. Names are unique per owner.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, owner string, req request.CreatePortfolioRequest) (*model.Portfolio, error) {
	now := s.now().UTC()
	p := &model.Portfolio{
		ID:        uuid.New().String(),
		Owner:     owner,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePortfolio(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("portfolio_id", p.ID).Str("owner", owner).Msg("portfolio created")
	return p, nil
}

// ListPortfolios returns the portfolios of owner.
func (s *PortfolioService) ListPortfolios(ctx context.Context, owner string) ([]model.Portfolio, error) {
	return s.store.ListPortfolios(ctx, owner)
}

// GetPortfolio returns one portfolio of owner with its holdings.
func (s *PortfolioService) GetPortfolio(ctx context.Context, owner, id string) (*PortfolioDetail, error) {
	p, err := s.store.LoadPortfolio(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	holdings, err := s.store.ListHoldings(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &PortfolioDetail{Portfolio: *p, Holdings: holdings}, nil
}

// ListTransactions returns the portfolio's transactions, most recent first.
func (s *PortfolioService) ListTransactions(ctx context.Context, owner, id string, filter model.TransactionFilter) ([]model.Transaction, error) {
	p, err := s.store.LoadPortfolio(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultTransactionLimit
	}
	return s.store.RecentTransactions(ctx, p.ID, filter)
}
