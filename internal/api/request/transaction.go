package request

import "github.com/shopspring/decimal"

// DepositRequest adds external money. Amount is in Currency; the cash balance
// credited is TradeCurrency, which defaults to Currency. Rate is USD/TRY and
// the current rate is used when it is omitted.
type DepositRequest struct {
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	TradeCurrency string           `json:"tradeCurrency,omitempty"`
	Rate          *decimal.Decimal `json:"rate,omitempty"`
	Date          string           `json:"date,omitempty"`
	Note          string           `json:"note,omitempty"`
}

// WithdrawRequest takes money out of the Currency cash balance.
type WithdrawRequest struct {
	Amount   decimal.Decimal  `json:"amount"`
	Currency string           `json:"currency"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Date     string           `json:"date,omitempty"`
	Note     string           `json:"note,omitempty"`
}

// ExchangeRequest converts between the cash balances. Amount is in the
// currency being spent: TRY for buy_usd, USD for sell_usd.
type ExchangeRequest struct {
	Direction string           `json:"direction"`
	Amount    decimal.Decimal  `json:"amount"`
	Rate      *decimal.Decimal `json:"rate,omitempty"`
	Date      string           `json:"date,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// TradeRequest buys or sells a symbol, sized by Quantity or by Amount in the
// trade currency. Currency defaults to the symbol's quote currency and Price,
// in that currency, defaults to the live price.
type TradeRequest struct {
	Symbol   string           `json:"symbol"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Date     string           `json:"date,omitempty"`
	Note     string           `json:"note,omitempty"`
}

// InterestInRequest moves cash into a simple-interest deposit. AnnualRate is
// in percent.
type InterestInRequest struct {
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	AnnualRate      decimal.Decimal  `json:"annualRate"`
	StartDate       string           `json:"startDate"`
	EndDate         string           `json:"endDate"`
	PaymentInterval string           `json:"paymentInterval,omitempty"`
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	Note            string           `json:"note,omitempty"`
}

// InterestOutRequest returns Principal plus Earned from a deposit to cash.
type InterestOutRequest struct {
	Principal decimal.Decimal  `json:"principal"`
	Earned    decimal.Decimal  `json:"earned"`
	Currency  string           `json:"currency"`
	Rate      *decimal.Decimal `json:"rate,omitempty"`
	Date      string           `json:"date,omitempty"`
	Note      string           `json:"note,omitempty"`
}
