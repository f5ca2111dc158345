package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of a ledger entry.
type TransactionType string

const (
	TxDeposit     TransactionType = "deposit"
	TxWithdraw    TransactionType = "withdraw"
	TxExchange    TransactionType = "exchange"
	TxBuy         TransactionType = "buy"
	TxSell        TransactionType = "sell"
	TxInterestIn  TransactionType = "interest_in"
	TxInterestOut TransactionType = "interest_out"
)

// Valid reports whether t is one of the seven known kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdraw, TxExchange, TxBuy, TxSell, TxInterestIn, TxInterestOut:
		return true
	}
	return false
}

// Currency is a cash currency tracked by the ledger.
type Currency string

const (
	TRY Currency = "TRY"
	USD Currency = "USD"
)

// Valid reports whether c is TRY or USD.
func (c Currency) Valid() bool {
	return c == TRY || c == USD
}

// ExchangeDirection is the explicit side of an exchange transaction.
type ExchangeDirection string

const (
	BuyUSD  ExchangeDirection = "buy_usd"  // TRY -> USD
	SellUSD ExchangeDirection = "sell_usd" // USD -> TRY
)

// SpendCurrency is the currency an exchange in this direction pays with.
func (d ExchangeDirection) SpendCurrency() Currency {
	if d == SellUSD {
		return USD
	}
	return TRY
}

// PaymentInterval values for interest deposits.
const (
	PayDaily   = "daily"
	PayWeekly  = "weekly"
	PayMonthly = "monthly"
	PayAtEnd   = "end"
)

// InterestTerms holds the metadata of interest_in and interest_out entries.
type InterestTerms struct {
	AnnualRate      decimal.Decimal `json:"annualRate"`
	Days            int             `json:"days"`
	StartDate       *time.Time      `json:"startDate,omitempty"`
	EndDate         *time.Time      `json:"endDate,omitempty"`
	PaymentInterval string          `json:"paymentInterval,omitempty"`
	EarnedTRY       decimal.Decimal `json:"earnedTry"`
	EarnedUSD       decimal.Decimal `json:"earnedUsd"`
}

// Transaction is an immutable ledger fact.
//
// TradeCurrency decides which cash balance moves. For exchange entries it is
// the currency being spent and must agree with Direction.
type Transaction struct {
	ID              string            `json:"id"`
	PortfolioID     string            `json:"portfolioId"`
	Type            TransactionType   `json:"type"`
	Symbol          string            `json:"symbol,omitempty"`
	Quantity        decimal.Decimal   `json:"quantity"`
	Price           decimal.Decimal   `json:"price"`
	AmountTRY       decimal.Decimal   `json:"amountTry"`
	AmountUSD       decimal.Decimal   `json:"amountUsd"`
	USDTRYRate      decimal.Decimal   `json:"usdTryRate"`
	TradeCurrency   Currency          `json:"tradeCurrency"`
	Direction       ExchangeDirection `json:"direction,omitempty"`
	Interest        *InterestTerms    `json:"interest,omitempty"`
	Note            string            `json:"note"`
	TransactionDate *time.Time        `json:"transactionDate,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// EffectiveDate is the user supplied date, or the insertion time for undated entries.
func (t *Transaction) EffectiveDate() time.Time {
	if t.TransactionDate != nil {
		return *t.TransactionDate
	}
	return t.CreatedAt
}

// Amount returns the recorded amount in the given currency.
func (t *Transaction) Amount(c Currency) decimal.Decimal {
	if c == TRY {
		return t.AmountTRY
	}
	return t.AmountUSD
}

// TradeAmount is the recorded amount in the trade currency.
func (t *Transaction) TradeAmount() decimal.Decimal {
	return t.Amount(t.TradeCurrency)
}

// Earned returns the interest earned in the given currency, zero when absent.
func (t *Transaction) Earned(c Currency) decimal.Decimal {
	if t.Interest == nil {
		return decimal.Zero
	}
	if c == TRY {
		return t.Interest.EarnedTRY
	}
	return t.Interest.EarnedUSD
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Type  TransactionType
	Limit int
}
