package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// TransactionRepository provides data access methods for the ledger_transaction table.
// Rows are only ever inserted or deleted.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const transactionColumns = `id, portfolio_id, type, symbol, quantity, price, amount_try, amount_usd,
	usd_try_rate, trade_currency, direction, interest_rate, interest_days, interest_start_date,
	interest_end_date, interest_payment_interval, interest_earned_try, interest_earned_usd,
	note, transaction_date, created_at`

// canonicalOrder mirrors ledger.Compare so listings come back ready for replay.
const canonicalOrder = ` ORDER BY transaction_date IS NULL, transaction_date ASC, created_at ASC, id ASC`

// Append inserts a transaction.
func (r *TransactionRepository) Append(ctx context.Context, t *model.Transaction) error {
	query := `INSERT INTO ledger_transaction (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var (
		rate, earnedTRY, earnedUSD decimal.NullDecimal
		days                       sql.NullInt64
		start, end                 sql.NullString
		interval                   sql.NullString
	)
	if t.Interest != nil {
		rate = decimal.NewNullDecimal(t.Interest.AnnualRate)
		earnedTRY = decimal.NewNullDecimal(t.Interest.EarnedTRY)
		earnedUSD = decimal.NewNullDecimal(t.Interest.EarnedUSD)
		days = sql.NullInt64{Int64: int64(t.Interest.Days), Valid: true}
		start = formatNullTime(t.Interest.StartDate)
		end = formatNullTime(t.Interest.EndDate)
		interval = nullString(t.Interest.PaymentInterval)
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		t.ID,
		t.PortfolioID,
		string(t.Type),
		nullString(t.Symbol),
		t.Quantity,
		t.Price,
		t.AmountTRY,
		t.AmountUSD,
		t.USDTRYRate,
		string(t.TradeCurrency),
		nullString(string(t.Direction)),
		rate,
		days,
		start,
		end,
		interval,
		earnedTRY,
		earnedUSD,
		t.Note,
		formatNullTime(t.TransactionDate),
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into ledger_transaction table: %w", err)
	}
	return nil
}

// Delete removes one transaction of a portfolio.
// Returns apperrors.ErrTransactionNotFound when nothing was deleted.
func (r *TransactionRepository) Delete(ctx context.Context, portfolioID, id string) error {
	res, err := r.getQuerier().ExecContext(ctx,
		`DELETE FROM ledger_transaction WHERE id = ? AND portfolio_id = ?`, id, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to delete from ledger_transaction table: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// Get retrieves one transaction of a portfolio.
func (r *TransactionRepository) Get(ctx context.Context, portfolioID, id string) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transaction WHERE id = ? AND portfolio_id = ?`

	t, err := scanTransaction(r.getQuerier().QueryRowContext(ctx, query, id, portfolioID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_transaction table: %w", err)
	}
	return t, nil
}

// List retrieves the full log of a portfolio in canonical order.
// Returns an empty slice if the portfolio has no transactions.
func (r *TransactionRepository) List(ctx context.Context, portfolioID string) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transaction WHERE portfolio_id = ?` + canonicalOrder
	return r.query(ctx, query, portfolioID)
}

// ListRecent retrieves transactions in reverse canonical order (latest
// effective first), optionally restricted to one type and capped at filter.Limit rows.
func (r *TransactionRepository) ListRecent(ctx context.Context, portfolioID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transaction WHERE portfolio_id = ?`
	args := []any{portfolioID}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY transaction_date IS NULL DESC, transaction_date DESC, created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return r.query(ctx, query, args...)
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger_transaction table results: %w", err)
		}
		transactions = append(transactions, *t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_transaction table: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		t                          model.Transaction
		txType, tradeCurrency      string
		symbol, direction          sql.NullString
		rate, earnedTRY, earnedUSD decimal.NullDecimal
		days                       sql.NullInt64
		start, end, interval       sql.NullString
		txDate                     sql.NullString
		createdAt                  string
	)

	err := row.Scan(
		&t.ID,
		&t.PortfolioID,
		&txType,
		&symbol,
		&t.Quantity,
		&t.Price,
		&t.AmountTRY,
		&t.AmountUSD,
		&t.USDTRYRate,
		&tradeCurrency,
		&direction,
		&rate,
		&days,
		&start,
		&end,
		&interval,
		&earnedTRY,
		&earnedUSD,
		&t.Note,
		&txDate,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = model.TransactionType(txType)
	t.TradeCurrency = model.Currency(tradeCurrency)
	t.Symbol = symbol.String
	t.Direction = model.ExchangeDirection(direction.String)

	if rate.Valid || earnedTRY.Valid || earnedUSD.Valid {
		terms := &model.InterestTerms{
			AnnualRate:      rate.Decimal,
			Days:            int(days.Int64),
			PaymentInterval: interval.String,
			EarnedTRY:       earnedTRY.Decimal,
			EarnedUSD:       earnedUSD.Decimal,
		}
		if terms.StartDate, err = parseNullTime(start); err != nil {
			return nil, err
		}
		if terms.EndDate, err = parseNullTime(end); err != nil {
			return nil, err
		}
		t.Interest = terms
	}

	if t.TransactionDate, err = parseNullTime(txDate); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}
