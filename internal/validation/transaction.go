package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/request"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// ValidPaymentInterval contains the allowed interest payment intervals.
var ValidPaymentInterval = map[string]bool{
	model.PayDaily: true, model.PayWeekly: true, model.PayMonthly: true, model.PayAtEnd: true,
}

// ValidateDeposit validates a deposit request.
//
// Required fields:
//   - amount: Must be positive
//   - currency: TRY or USD
//
// Optional fields (validated if provided):
//   - tradeCurrency: TRY or USD
//   - rate: Must be positive
//   - date: YYYY-MM-DD or RFC 3339
func ValidateDeposit(req request.DepositRequest) error {
	f := fields{}
	f.positive("amount", req.Amount)
	f.currency("currency", req.Currency, true)
	f.currency("tradeCurrency", req.TradeCurrency, false)
	f.optionalPositive("rate", req.Rate)
	f.date("date", req.Date)
	return f.err()
}

// ValidateWithdraw validates a withdrawal request.
func ValidateWithdraw(req request.WithdrawRequest) error {
	f := fields{}
	f.positive("amount", req.Amount)
	f.currency("currency", req.Currency, true)
	f.optionalPositive("rate", req.Rate)
	f.date("date", req.Date)
	return f.err()
}

// ValidateExchange validates an exchange request. Direction must be buy_usd or sell_usd.
func ValidateExchange(req request.ExchangeRequest) error {
	f := fields{}
	switch model.ExchangeDirection(strings.ToLower(req.Direction)) {
	case model.BuyUSD, model.SellUSD:
	case "":
		f["direction"] = "direction is required"
	default:
		f["direction"] = fmt.Sprintf("invalid direction: %s (use buy_usd or sell_usd)", req.Direction)
	}
	f.positive("amount", req.Amount)
	f.optionalPositive("rate", req.Rate)
	f.date("date", req.Date)
	return f.err()
}

// ValidateTrade validates a buy or sell request. Exactly one of quantity and
// amount must be given.
func ValidateTrade(req request.TradeRequest) error {
	f := fields{}
	if strings.TrimSpace(req.Symbol) == "" {
		f["symbol"] = "symbol is required"
	}
	switch {
	case req.Quantity == nil && req.Amount == nil:
		f["quantity"] = "either quantity or amount must be specified"
	case req.Quantity != nil && req.Amount != nil:
		f["quantity"] = "specify quantity or amount, not both"
	}
	f.optionalPositive("quantity", req.Quantity)
	f.optionalPositive("amount", req.Amount)
	f.optionalPositive("price", req.Price)
	f.currency("currency", req.Currency, false)
	f.optionalPositive("rate", req.Rate)
	f.date("date", req.Date)
	return f.err()
}

// ValidateInterestIn validates an interest deposit request. The end date
// must be after the start date.
func ValidateInterestIn(req request.InterestInRequest) error {
	f := fields{}
	f.positive("amount", req.Amount)
	f.currency("currency", req.Currency, true)
	if req.AnnualRate.IsNegative() {
		f["annualRate"] = "annualRate must not be negative"
	}
	if _, _, err := ParseRange(req.StartDate, req.EndDate); err != nil {
		f["endDate"] = err.Error()
	}
	if req.PaymentInterval != "" && !ValidPaymentInterval[req.PaymentInterval] {
		f["paymentInterval"] = fmt.Sprintf("invalid paymentInterval: %s", req.PaymentInterval)
	}
	f.optionalPositive("rate", req.Rate)
	return f.err()
}

// ValidateInterestOut validates an interest withdrawal request.
func ValidateInterestOut(req request.InterestOutRequest) error {
	f := fields{}
	f.positive("principal", req.Principal)
	if req.Earned.IsNegative() {
		f["earned"] = "earned must not be negative"
	}
	f.currency("currency", req.Currency, true)
	f.optionalPositive("rate", req.Rate)
	f.date("date", req.Date)
	return f.err()
}
