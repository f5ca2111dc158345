package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// HoldingRepository provides data access methods for the holding table, the
// materialized positions derived from buy and sell transactions.
type HoldingRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// WithTx returns a new HoldingRepository scoped to the provided transaction.
func (r *HoldingRepository) WithTx(tx *sql.Tx) *HoldingRepository {
	return &HoldingRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *HoldingRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// List retrieves the holdings of a portfolio ordered by symbol.
func (r *HoldingRepository) List(ctx context.Context, portfolioID string) ([]model.Holding, error) {
	query := `
		SELECT portfolio_id, symbol, quantity, total_cost_usd, avg_cost_usd, updated_at
		FROM holding
		WHERE portfolio_id = ?
		ORDER BY symbol ASC
	`
	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	holdings := []model.Holding{}
	for rows.Next() {
		var h model.Holding
		var updatedAt string
		if err := rows.Scan(&h.PortfolioID, &h.Symbol, &h.Quantity, &h.TotalCostUSD, &h.AvgCostUSD, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding table results: %w", err)
		}
		if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}
	return holdings, nil
}

// Replace swaps the holdings of a portfolio for the given set.
// Callers should run it inside a transaction.
func (r *HoldingRepository) Replace(ctx context.Context, portfolioID string, holdings []model.Holding) error {
	q := r.getQuerier()

	if _, err := q.ExecContext(ctx, `DELETE FROM holding WHERE portfolio_id = ?`, portfolioID); err != nil {
		return fmt.Errorf("failed to clear holding table: %w", err)
	}

	for _, h := range holdings {
		_, err := q.ExecContext(ctx, `
			INSERT INTO holding (portfolio_id, symbol, quantity, total_cost_usd, avg_cost_usd, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, portfolioID, h.Symbol, h.Quantity, h.TotalCostUSD, h.AvgCostUSD, formatTime(h.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert into holding table: %w", err)
		}
	}
	return nil
}
