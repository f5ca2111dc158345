package ledger_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/ledger"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

func TestValidateInsert(t *testing.T) {
	t.Run("withdraw beyond balance reports needed and available", func(t *testing.T) {
		var l txLog
		l.add(model.Transaction{Type: model.TxDeposit, TradeCurrency: model.USD, AmountTRY: d("400"), AmountUSD: d("10"), TransactionDate: day(0)})
		l.add(withdrawUSD("5", day(1)))

		c := withdrawUSD("10", day(2))
		c.ID = "candidate"
		err := ledger.ValidateInsert(l.txs, c)

		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInsufficientBalance))
		var ib *apperrors.InsufficientBalanceError
		require.True(t, errors.As(err, &ib))
		assert.Equal(t, "USD", ib.Asset)
		assertDec(t, "10", ib.Needed)
		assertDec(t, "5", ib.Available)
		assert.Equal(t, "candidate", ib.TransactionID)
		assert.Equal(t, *day(2), ib.At)
	})

	t.Run("within tolerance is accepted", func(t *testing.T) {
		var l txLog
		l.add(depositUSD("10", day(0)))

		err := ledger.ValidateInsert(l.txs, withdrawUSD("10.005", day(1)))
		assert.NoError(t, err)
	})

	// A backdated sell of a symbol before its first buy must fail even though
	// the present-day holding would cover it.
	t.Run("backdated sell before buy fails on the symbol", func(t *testing.T) {
		var l txLog
		l.add(depositUSD("1000", day(0)))
		l.add(buy("AAPL", "5", "100", day(10)))

		err := ledger.ValidateInsert(l.txs, sell("AAPL", "1", "90", day(5)))

		var ib *apperrors.InsufficientBalanceError
		require.True(t, errors.As(err, &ib))
		assert.Equal(t, "AAPL", ib.Asset)
		assertDec(t, "1", ib.Needed)
		assertDec(t, "0", ib.Available)
		assert.Equal(t, *day(5), ib.At)
	})

	t.Run("backdated withdraw breaking a later buy fails at the buy", func(t *testing.T) {
		var l txLog
		l.add(depositUSD("1000", day(0)))
		buyTx := l.add(buy("AAPL", "5", "150", day(10)))

		err := ledger.ValidateInsert(l.txs, withdrawUSD("600", day(5)))

		var ib *apperrors.InsufficientBalanceError
		require.True(t, errors.As(err, &ib))
		assert.Equal(t, buyTx.ID, ib.TransactionID)
		assertDec(t, "750", ib.Needed)
		assertDec(t, "400", ib.Available)
	})

	t.Run("interest withdrawal checks principal against interest balance", func(t *testing.T) {
		var l txLog
		l.add(depositUSD("100", day(0)))
		l.add(model.Transaction{Type: model.TxInterestIn, TradeCurrency: model.USD, AmountUSD: d("50"), TransactionDate: day(1)})

		ok := model.Transaction{Type: model.TxInterestOut, TradeCurrency: model.USD, AmountUSD: d("52"), Interest: &model.InterestTerms{EarnedUSD: d("2")}, TransactionDate: day(30)}
		assert.NoError(t, ledger.ValidateInsert(l.txs, ok))

		tooMuch := model.Transaction{Type: model.TxInterestOut, TradeCurrency: model.USD, AmountUSD: d("62"), Interest: &model.InterestTerms{EarnedUSD: d("2")}, TransactionDate: day(30)}
		var ib *apperrors.InsufficientBalanceError
		require.True(t, errors.As(ledger.ValidateInsert(l.txs, tooMuch), &ib))
		assert.Equal(t, "interest_USD", ib.Asset)
	})

	t.Run("inconsistent exchange is rejected", func(t *testing.T) {
		var l txLog
		l.add(depositTRY("1000", day(0)))

		c := model.Transaction{Type: model.TxExchange, Direction: model.BuyUSD, TradeCurrency: model.USD, AmountTRY: d("400"), AmountUSD: d("10"), TransactionDate: day(1)}
		err := ledger.ValidateInsert(l.txs, c)
		assert.ErrorIs(t, err, apperrors.ErrInconsistentTransaction)
	})
}

// TestValidateWithout verifies deletion gating.
//
// WHY: A deposit cannot be deleted once a later withdrawal or buy spent it;
// removing it would make history overdrawn.
func TestValidateWithout(t *testing.T) {
	var l txLog
	dep := l.add(depositUSD("100", day(0)))
	l.add(depositUSD("100", day(1)))
	l.add(withdrawUSD("150", day(2)))

	t.Run("removing a needed deposit fails", func(t *testing.T) {
		err := ledger.ValidateWithout(l.txs, dep.ID)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		err := ledger.ValidateWithout(l.txs, "missing")
		assert.ErrorIs(t, err, apperrors.ErrTransactionNotFound)
	})

	t.Run("removal that keeps history valid succeeds and matches replay", func(t *testing.T) {
		var l2 txLog
		a := l2.add(depositUSD("100", day(0)))
		b := l2.add(depositUSD("30", day(1)))
		l2.add(withdrawUSD("80", day(2)))

		require.NoError(t, ledger.ValidateWithout(l2.txs, b.ID))

		rest := slices.DeleteFunc(slices.Clone(l2.txs), func(tx model.Transaction) bool { return tx.ID == b.ID })
		s := ledger.ReplayAll(rest)
		assertDec(t, "20", s.CashUSD)
		assert.Equal(t, a.ID, rest[0].ID)
	})
}

// TestValidate_AcceptedHistoriesStayNonNegative walks every prefix of an
// accepted history.
//
// WHY: The validator is the only guard on balances. Whatever it accepts must
// keep both cash balances, both interest balances and every holding at or
// above zero after each entry.
func TestValidate_AcceptedHistoriesStayNonNegative(t *testing.T) {
	var l txLog
	candidates := []model.Transaction{
		depositUSD("500", day(0)),
		depositTRY("4000", day(0)),
		buy("AAPL", "2", "100", day(1)),
		withdrawUSD("400", day(2)), // rejected
		interestIn(model.TRY, "3000", day(2)),
		interestIn(model.USD, "100", day(2)),
		interestOut(model.TRY, "3500", "100", day(3)), // rejected, principal 3400 > 3000
		sell("AAPL", "1", "120", day(3)),
		withdrawUSD("200", day(4)),
		withdrawUSD("200", day(4)), // rejected
		interestOut(model.USD, "101", "1", day(5)),
		interestOut(model.USD, "50", "0", day(6)), // rejected, deposit already returned
		interestOut(model.TRY, "3030", "30", day(6)),
		withdrawTRY("4100", day(7)),      // rejected
		sell("AAPL", "2", "120", day(7)), // rejected
		withdrawUSD("20", nil),
	}

	accepted := 0
	for _, c := range candidates {
		c.CreatedAt = base.Add(time.Duration(l.n+1) * time.Minute)
		if ledger.ValidateInsert(l.txs, c) == nil {
			l.add(c)
			accepted++
		}
	}
	assert.Equal(t, 10, accepted)

	floor := ledger.CurrencyTolerance.Neg()
	sorted := ledger.Sorted(l.txs)
	for i := range sorted {
		s := ledger.ReplayAll(sorted[:i+1])
		assert.False(t, s.CashUSD.LessThan(floor), "prefix %d cash_usd %s", i, s.CashUSD)
		assert.False(t, s.CashTRY.LessThan(floor), "prefix %d cash_try %s", i, s.CashTRY)
		assert.False(t, s.InterestUSD.LessThan(floor), "prefix %d interest_usd %s", i, s.InterestUSD)
		assert.False(t, s.InterestTRY.LessThan(floor), "prefix %d interest_try %s", i, s.InterestTRY)
		for sym, pos := range s.Holdings {
			assert.False(t, pos.Quantity.IsNegative(), "prefix %d %s", i, sym)
		}
	}

	final := ledger.ReplayAll(l.txs)
	assertDec(t, "0", final.InterestTRY)
	assertDec(t, "0", final.InterestUSD)
	assertDec(t, "4030", final.CashTRY)
}
