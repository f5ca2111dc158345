package ledger_test

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(n int) *time.Time {
	t := base.AddDate(0, 0, n)
	return &t
}

// txLog hands out transactions with increasing insertion times and IDs.
type txLog struct {
	n   int
	txs []model.Transaction
}

func (l *txLog) add(tx model.Transaction) model.Transaction {
	l.n++
	tx.ID = fmt.Sprintf("tx-%03d", l.n)
	tx.PortfolioID = "p1"
	tx.CreatedAt = base.Add(time.Duration(l.n) * time.Minute)
	l.txs = append(l.txs, tx)
	return tx
}

func depositUSD(amount string, on *time.Time) model.Transaction {
	a := d(amount)
	return model.Transaction{Type: model.TxDeposit, TradeCurrency: model.USD, AmountUSD: a, AmountTRY: a.Mul(d("40")), USDTRYRate: d("40"), TransactionDate: on}
}

func depositTRY(amount string, on *time.Time) model.Transaction {
	a := d(amount)
	return model.Transaction{Type: model.TxDeposit, TradeCurrency: model.TRY, AmountTRY: a, AmountUSD: a.Div(d("40")), USDTRYRate: d("40"), TransactionDate: on}
}

func withdrawUSD(amount string, on *time.Time) model.Transaction {
	return model.Transaction{Type: model.TxWithdraw, TradeCurrency: model.USD, AmountUSD: d(amount), TransactionDate: on}
}

func withdrawTRY(amount string, on *time.Time) model.Transaction {
	return model.Transaction{Type: model.TxWithdraw, TradeCurrency: model.TRY, AmountTRY: d(amount), TransactionDate: on}
}

func interestIn(cur model.Currency, amount string, on *time.Time) model.Transaction {
	tx := model.Transaction{Type: model.TxInterestIn, TradeCurrency: cur, Interest: &model.InterestTerms{}, TransactionDate: on}
	if cur == model.TRY {
		tx.AmountTRY = d(amount)
	} else {
		tx.AmountUSD = d(amount)
	}
	return tx
}

// interestOut returns total (principal plus earned) to cash.
func interestOut(cur model.Currency, total, earned string, on *time.Time) model.Transaction {
	tx := interestIn(cur, total, on)
	tx.Type = model.TxInterestOut
	if cur == model.TRY {
		tx.Interest.EarnedTRY = d(earned)
	} else {
		tx.Interest.EarnedUSD = d(earned)
	}
	return tx
}

func buy(symbol, qty, price string, on *time.Time) model.Transaction {
	amount := d(qty).Mul(d(price))
	return model.Transaction{Type: model.TxBuy, Symbol: symbol, TradeCurrency: model.USD, Quantity: d(qty), Price: d(price), AmountUSD: amount, TransactionDate: on}
}

func sell(symbol, qty, price string, on *time.Time) model.Transaction {
	amount := d(qty).Mul(d(price))
	return model.Transaction{Type: model.TxSell, Symbol: symbol, TradeCurrency: model.USD, Quantity: d(qty), Price: d(price), AmountUSD: amount, TransactionDate: on}
}
