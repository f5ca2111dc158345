// Package response provides utilities for sending consistent HTTP responses.
// It includes helpers for JSON responses and standardized error responses.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/apperrors"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/validation"
)

// ErrorResponse represents a structured error response returned by the API.
// The Details field is optional and can contain additional context about the error.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// ShortfallDetails describes an insufficient balance rejection.
type ShortfallDetails struct {
	Asset         string          `json:"asset"`
	Needed        decimal.Decimal `json:"needed"`
	Available     decimal.Decimal `json:"available"`
	At            string          `json:"at"`
	TransactionID string          `json:"transactionId,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Sets the Content-Type header to application/json and writes the status code.
// If data is nil, only the status code is sent (useful for 204 No Content).
// Logs encoding errors but does not fail the response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("failed to encode JSON response")
		}
	}
}

// RespondError sends a structured error response with the given status code.
// The message should be a user-friendly error description.
// The details parameter can be an error string, additional context, or nil.
//
// Example:
//
//	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
//	response.RespondError(w, http.StatusNotFound, "resource not found", "")
func RespondError(w http.ResponseWriter, status int, message string, details interface{}) {
	response := ErrorResponse{
		Error:   message,
		Details: details,
	}
	RespondJSON(w, status, response)
}

// RespondServiceError maps an error returned by a service to its HTTP status
// and writes it.
//
//   - validation errors and malformed input: 400 with field details
//   - unknown portfolio or transaction: 404
//   - duplicate portfolio name: 409
//   - insufficient balance: 422 with the shortfall
//   - no price for a write: 422
//   - no FX rate at all: 503
//   - anything else: 500
func RespondServiceError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
		return
	}

	var ib *apperrors.InsufficientBalanceError
	if errors.As(err, &ib) {
		RespondError(w, http.StatusUnprocessableEntity, apperrors.ErrInsufficientBalance.Error(), ShortfallDetails{
			Asset:         ib.Asset,
			Needed:        ib.Needed,
			Available:     ib.Available,
			At:            ib.At.Format("2006-01-02"),
			TransactionID: ib.TransactionID,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidCurrency),
		errors.Is(err, apperrors.ErrInvalidSymbol),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrInconsistentTransaction):
		RespondError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, apperrors.ErrPortfolioNotFound):
		RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), "")
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), "")
	case errors.Is(err, apperrors.ErrDuplicatePortfolio):
		RespondError(w, http.StatusConflict, apperrors.ErrDuplicatePortfolio.Error(), "")
	case errors.Is(err, apperrors.ErrPriceNotFound):
		RespondError(w, http.StatusUnprocessableEntity, apperrors.ErrPriceNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrProviderDegraded):
		RespondError(w, http.StatusServiceUnavailable, "market data unavailable", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled service error")
		RespondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
