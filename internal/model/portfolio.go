package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is one named ledger owned by a user. The money fields are cached
// projections of the transaction log and are rewritten by replay.
type Portfolio struct {
	ID                string          `json:"id"`
	Owner             string          `json:"owner"`
	Name              string          `json:"name"`
	CashTRY           decimal.Decimal `json:"cashTry"`
	CashUSD           decimal.Decimal `json:"cashUsd"`
	InterestTRY       decimal.Decimal `json:"interestTry"`
	InterestUSD       decimal.Decimal `json:"interestUsd"`
	TotalDepositedTRY decimal.Decimal `json:"totalDepositedTry"`
	TotalDepositedUSD decimal.Decimal `json:"totalDepositedUsd"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Holding is the derived position of one symbol in a portfolio.
type Holding struct {
	PortfolioID  string          `json:"portfolioId"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalCostUSD decimal.Decimal `json:"totalCostUsd"`
	AvgCostUSD   decimal.Decimal `json:"avgCostUsd"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
