package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// Stored precision per currency and for quantities.
const (
	usdPlaces      = 4
	tryPlaces      = 2
	quantityPlaces = 8
)

var daysPerYear = decimal.NewFromInt(365)

func places(c model.Currency) int32 {
	if c == model.TRY {
		return tryPlaces
	}
	return usdPlaces
}

func parseCurrency(s string) (model.Currency, error) {
	c := model.Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidCurrency, s)
	}
	return c, nil
}

// split returns amount, given in cur, in TRY and USD at rate (TRY per USD).
func split(amount decimal.Decimal, cur model.Currency, rate decimal.Decimal) (amountTRY, amountUSD decimal.Decimal) {
	if cur == model.TRY {
		return amount.Round(tryPlaces), amount.DivRound(rate, usdPlaces)
	}
	return amount.Mul(rate).Round(tryPlaces), amount.Round(usdPlaces)
}

// convert expresses amount in currency from as currency to.
func convert(amount decimal.Decimal, from, to model.Currency, rate decimal.Decimal) decimal.Decimal {
	switch {
	case from == to:
		return amount
	case from == model.USD:
		return amount.Mul(rate)
	default:
		return amount.DivRound(rate, quantityPlaces)
	}
}

// SimpleInterest is principal * annualRatePct/100 * days/365.
func SimpleInterest(principal, annualRatePct decimal.Decimal, days int) decimal.Decimal {
	return principal.
		Mul(annualRatePct).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(days))).
		Div(daysPerYear)
}

func latestCreatedAt(txs []model.Transaction) time.Time {
	var latest time.Time
	for i := range txs {
		if txs[i].CreatedAt.After(latest) {
			latest = txs[i].CreatedAt
		}
	}
	return latest
}

func symbolOf(c model.Currency) string {
	if c == model.TRY {
		return "₺"
	}
	return "$"
}

func money(amount decimal.Decimal, c model.Currency) string {
	return fmt.Sprintf("%s%s %s", symbolOf(c), amount.StringFixed(places(c)), c)
}

func noteOr(custom, generated string) string {
	if s := strings.TrimSpace(custom); s != "" {
		return s
	}
	return generated
}
