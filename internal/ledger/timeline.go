package ledger

import (
	"slices"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
)

// CheckConsistency rejects exchange entries whose explicit direction and
// trade currency disagree.
func CheckConsistency(tx *model.Transaction) error {
	if tx.Type != model.TxExchange || tx.Direction == "" {
		return nil
	}
	if tx.Direction != model.BuyUSD && tx.Direction != model.SellUSD {
		return apperrors.ErrInconsistentTransaction
	}
	if tx.Direction.SpendCurrency() != tx.TradeCurrency {
		return apperrors.ErrInconsistentTransaction
	}
	return nil
}

// Validate walks the whole log in canonical order and returns an
// *apperrors.InsufficientBalanceError for the first transaction that would
// take a balance or holding below tolerance.
func Validate(txs []model.Transaction) error {
	s := NewState()
	for _, tx := range Sorted(txs) {
		if err := CheckConsistency(&tx); err != nil {
			return err
		}
		if sf := s.step(&tx); sf != nil {
			return &apperrors.InsufficientBalanceError{
				Asset:         sf.asset,
				Needed:        sf.needed,
				Available:     sf.available,
				At:            tx.EffectiveDate(),
				TransactionID: tx.ID,
			}
		}
	}
	return nil
}

// ValidateInsert checks the log with candidate spliced in at its canonical position.
func ValidateInsert(existing []model.Transaction, candidate model.Transaction) error {
	if err := CheckConsistency(&candidate); err != nil {
		return err
	}
	merged := append(slices.Clone(existing), candidate)
	return Validate(merged)
}

// ValidateWithout checks the log with the transaction txID removed.
func ValidateWithout(existing []model.Transaction, txID string) error {
	idx := slices.IndexFunc(existing, func(tx model.Transaction) bool {
		return tx.ID == txID
	})
	if idx < 0 {
		return apperrors.ErrTransactionNotFound
	}
	rest := slices.Delete(slices.Clone(existing), idx, idx+1)
	return Validate(rest)
}
