// Package ledger rebuilds portfolio state from the transaction log and checks
// that a log never overdraws a balance or holding at any point in time.
package ledger

import (
	"slices"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// Compare orders transactions canonically: dated entries first by effective
// date, undated entries after them, ties broken by insertion time and then ID.
func Compare(a, b *model.Transaction) int {
	switch {
	case a.TransactionDate != nil && b.TransactionDate == nil:
		return -1
	case a.TransactionDate == nil && b.TransactionDate != nil:
		return 1
	case a.TransactionDate != nil && b.TransactionDate != nil:
		if c := a.TransactionDate.Compare(*b.TransactionDate); c != 0 {
			return c
		}
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// Less reports whether a sorts before b.
func Less(a, b *model.Transaction) bool {
	return Compare(a, b) < 0
}

// Sorted returns a copy of txs in canonical order. The input is not modified.
func Sorted(txs []model.Transaction) []model.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		return Compare(&a, &b)
	})
	return out
}

// SortsLast reports whether candidate would be placed after every transaction
// in existing, in which case applying it to the current state is equivalent
// to a full replay.
func SortsLast(existing []model.Transaction, candidate *model.Transaction) bool {
	for i := range existing {
		if Compare(&existing[i], candidate) > 0 {
			return false
		}
	}
	return true
}
