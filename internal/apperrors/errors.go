package apperrors

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Domain entity errors represent missing entities in the system.
// These errors indicate that a requested resource does not exist for the requesting owner.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPriceNotFound indicates a provider returned no usable price for a symbol/date.
	ErrPriceNotFound = errors.New("price not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidAmount indicates an amount that is zero, negative or malformed.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidDateRange indicates that the end date is not after the start date,
	// or that a date could not be parsed.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInsufficientBalance indicates that a balance or holding would go negative
	// at some point of the ordered ledger. Returned wrapped in *InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInconsistentTransaction indicates that the explicit exchange direction
	// and the trade currency of a transaction disagree.
	ErrInconsistentTransaction = errors.New("transaction direction and trade currency disagree")

	// ErrInvalidCurrency indicates a currency other than TRY or USD.
	ErrInvalidCurrency = errors.New("currency must be TRY or USD")

	// ErrInvalidSymbol indicates an empty or malformed asset symbol.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrDuplicatePortfolio indicates the owner already has a portfolio with that name.
	ErrDuplicatePortfolio = errors.New("portfolio name already exists")
)

// Provider errors represent upstream data sources that could not serve a request.
var (
	// ErrProviderDegraded indicates that a price, FX or CPI provider failed and no
	// fallback value was available.
	ErrProviderDegraded = errors.New("provider degraded")
)

// InsufficientBalanceError describes the first point in effective time where a
// balance or holding would drop below zero.
type InsufficientBalanceError struct {
	Asset         string // TRY, USD, interest_TRY, interest_USD or a symbol
	Needed        decimal.Decimal
	Available     decimal.Decimal
	At            time.Time
	TransactionID string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance on %s: needed %s, available %s",
		e.Asset, e.At.Format("2006-01-02"), e.Needed.String(), e.Available.String())
}

// Is lets errors.Is match ErrInsufficientBalance.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
