package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// shortfall records a subtraction that would take a balance below tolerance.
type shortfall struct {
	asset     string
	needed    decimal.Decimal
	available decimal.Decimal
}

// Replay rebuilds the state from txs in canonical order, stopping at the
// first transaction effective after cutoff. The result is always the state
// after a prefix of the log, so it never shows a balance the validator did
// not check.
func Replay(txs []model.Transaction, cutoff time.Time) State {
	s := NewState()
	for _, tx := range Sorted(txs) {
		if tx.EffectiveDate().After(cutoff) {
			break
		}
		s.step(&tx)
	}
	return s
}

// ReplayBefore rebuilds the state from the transactions of txs that sort
// before candidate.
func ReplayBefore(txs []model.Transaction, candidate *model.Transaction) State {
	s := NewState()
	for _, tx := range Sorted(txs) {
		if !Less(&tx, candidate) {
			break
		}
		s.step(&tx)
	}
	return s
}

// ReplayAll rebuilds the state from the whole log.
func ReplayAll(txs []model.Transaction) State {
	s := NewState()
	for _, tx := range Sorted(txs) {
		s.step(&tx)
	}
	return s
}

// Apply applies one transaction to s. It is the same effect function used
// by Replay and the validators.
func (s *State) Apply(tx *model.Transaction) {
	s.step(tx)
}

// ExchangeDirection resolves the direction of an exchange entry. An explicit
// direction wins; entries without one follow their trade currency.
func ExchangeDirection(tx *model.Transaction) model.ExchangeDirection {
	if tx.Direction != "" {
		return tx.Direction
	}
	if tx.TradeCurrency == model.USD {
		return model.SellUSD
	}
	return model.BuyUSD
}

// step applies tx and returns the first subtraction that went below tolerance.
// The effect is applied in full either way.
func (s *State) step(tx *model.Transaction) *shortfall {
	var first *shortfall
	note := func(sf *shortfall) {
		if first == nil && sf != nil {
			first = sf
		}
	}

	cur := tx.TradeCurrency
	amount := tx.TradeAmount()

	switch tx.Type {
	case model.TxDeposit:
		*s.cash(cur) = s.cash(cur).Add(amount)
		s.TotalDepositedTRY = s.TotalDepositedTRY.Add(tx.AmountTRY)
		s.TotalDepositedUSD = s.TotalDepositedUSD.Add(tx.AmountUSD)

	case model.TxWithdraw:
		note(subtract(s.cash(cur), amount, string(cur), CurrencyTolerance))

	case model.TxExchange:
		if ExchangeDirection(tx) == model.SellUSD {
			note(subtract(&s.CashUSD, tx.AmountUSD, string(model.USD), CurrencyTolerance))
			s.CashTRY = s.CashTRY.Add(tx.AmountTRY)
		} else {
			note(subtract(&s.CashTRY, tx.AmountTRY, string(model.TRY), CurrencyTolerance))
			s.CashUSD = s.CashUSD.Add(tx.AmountUSD)
		}

	case model.TxBuy:
		note(subtract(s.cash(cur), amount, string(cur), CurrencyTolerance))
		pos := s.Holdings[tx.Symbol]
		pos.Quantity = pos.Quantity.Add(tx.Quantity)
		pos.TotalCostUSD = pos.TotalCostUSD.Add(tx.AmountUSD)
		s.Holdings[tx.Symbol] = pos

	case model.TxSell:
		pos := s.Holdings[tx.Symbol]
		pre := pos.Quantity
		if pre.IsPositive() {
			sold := decimal.Min(tx.Quantity, pre)
			pos.TotalCostUSD = pos.TotalCostUSD.Sub(pos.TotalCostUSD.Mul(sold).Div(pre))
		}
		note(subtract(&pos.Quantity, tx.Quantity, tx.Symbol, QuantityTolerance))
		if pos.Quantity.LessThanOrEqual(QuantityTolerance) {
			delete(s.Holdings, tx.Symbol)
		} else {
			s.Holdings[tx.Symbol] = pos
		}
		*s.cash(cur) = s.cash(cur).Add(amount)

	case model.TxInterestIn:
		note(subtract(s.cash(cur), amount, string(cur), CurrencyTolerance))
		*s.interest(cur) = s.interest(cur).Add(amount)

	case model.TxInterestOut:
		principal := amount.Sub(tx.Earned(cur))
		note(subtract(s.interest(cur), principal, "interest_"+string(cur), CurrencyTolerance))
		*s.cash(cur) = s.cash(cur).Add(amount)
	}

	return first
}

// subtract takes amount from *bal and reports a shortfall when the balance
// before the subtraction could not cover it within tol.
func subtract(bal *decimal.Decimal, amount decimal.Decimal, asset string, tol decimal.Decimal) *shortfall {
	before := *bal
	*bal = before.Sub(amount)
	if bal.LessThan(tol.Neg()) {
		return &shortfall{asset: asset, needed: amount, available: before}
	}
	return nil
}
