package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// WithTx returns a new PortfolioRepository scoped to the provided transaction.
func (r *PortfolioRepository) WithTx(tx *sql.Tx) *PortfolioRepository {
	return &PortfolioRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PortfolioRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const portfolioColumns = `id, owner, name, cash_try, cash_usd, interest_try, interest_usd,
	total_deposited_try, total_deposited_usd, created_at, updated_at`

// Create inserts a new portfolio. Returns apperrors.ErrDuplicatePortfolio when
// the owner already has a portfolio with the same name.
func (r *PortfolioRepository) Create(ctx context.Context, p *model.Portfolio) error {
	query := `INSERT INTO portfolio (` + portfolioColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID, p.Owner, p.Name,
		p.CashTRY, p.CashUSD, p.InterestTRY, p.InterestUSD,
		p.TotalDepositedTRY, p.TotalDepositedUSD,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicatePortfolio
	}
	if err != nil {
		return fmt.Errorf("failed to insert into portfolio table: %w", err)
	}
	return nil
}

// Get retrieves one portfolio of owner. Returns apperrors.ErrPortfolioNotFound
// when the ID does not resolve for that owner.
func (r *PortfolioRepository) Get(ctx context.Context, owner, id string) (*model.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio WHERE id = ? AND owner = ?`

	p, err := scanPortfolio(r.getQuerier().QueryRowContext(ctx, query, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	return p, nil
}

// ListByOwner retrieves all portfolios of owner ordered by name.
// Returns an empty slice if the owner has none.
func (r *PortfolioRepository) ListByOwner(ctx context.Context, owner string) ([]model.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio WHERE owner = ? ORDER BY name ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		portfolios = append(portfolios, *p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}
	return portfolios, nil
}

// Save writes the cached balances of p.
func (r *PortfolioRepository) Save(ctx context.Context, p *model.Portfolio) error {
	query := `
		UPDATE portfolio
		SET cash_try = ?, cash_usd = ?, interest_try = ?, interest_usd = ?,
			total_deposited_try = ?, total_deposited_usd = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.getQuerier().ExecContext(ctx, query,
		p.CashTRY, p.CashUSD, p.InterestTRY, p.InterestUSD,
		p.TotalDepositedTRY, p.TotalDepositedUSD, formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio table: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.ErrPortfolioNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (*model.Portfolio, error) {
	var p model.Portfolio
	var createdAt, updatedAt string

	err := row.Scan(
		&p.ID,
		&p.Owner,
		&p.Name,
		&p.CashTRY,
		&p.CashUSD,
		&p.InterestTRY,
		&p.InterestUSD,
		&p.TotalDepositedTRY,
		&p.TotalDepositedUSD,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
