package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/response"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/validation"
)

// TestRespondServiceError maps service errors to HTTP statuses.
//
// WHY: Clients branch on the status code; wrapped sentinels must map the
// same way as bare ones.
func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &validation.Error{Fields: map[string]string{"amount": "amount is required"}}, http.StatusBadRequest},
		{"invalid amount", apperrors.ErrInvalidAmount, http.StatusBadRequest},
		{"wrapped date range", fmt.Errorf("parse: %w", apperrors.ErrInvalidDateRange), http.StatusBadRequest},
		{"inconsistent", apperrors.ErrInconsistentTransaction, http.StatusBadRequest},
		{"portfolio not found", apperrors.ErrPortfolioNotFound, http.StatusNotFound},
		{"transaction not found", apperrors.ErrTransactionNotFound, http.StatusNotFound},
		{"duplicate", apperrors.ErrDuplicatePortfolio, http.StatusConflict},
		{"price", fmt.Errorf("%w: AAPL", apperrors.ErrPriceNotFound), http.StatusUnprocessableEntity},
		{"degraded", fmt.Errorf("%w: usd/try", apperrors.ErrProviderDegraded), http.StatusServiceUnavailable},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			response.RespondServiceError(w, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}

	t.Run("insufficient balance carries the shortfall", func(t *testing.T) {
		w := httptest.NewRecorder()
		response.RespondServiceError(w, &apperrors.InsufficientBalanceError{
			Asset:     "USD",
			Needed:    decimal.NewFromInt(10),
			Available: decimal.NewFromInt(5),
			At:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body struct {
			Error   string                    `json:"error"`
			Details response.ShortfallDetails `json:"details"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "USD", body.Details.Asset)
		assert.True(t, body.Details.Needed.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, "2024-03-01", body.Details.At)
	})
}
