package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/response"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/model"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/service"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/validation"
)

// TransactionHandler handles HTTP requests for ledger operations and
// transaction listings of one portfolio.
type TransactionHandler struct {
	ledgerService    *service.LedgerService
	portfolioService *service.PortfolioService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependencies.
func NewTransactionHandler(ledgerService *service.LedgerService, portfolioService *service.PortfolioService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService:    ledgerService,
		portfolioService: portfolioService,
	}
}

// operation decodes a request of type T, validates it and runs it against the
// portfolio in the URL. Successful operations answer 201 with the
// service.OperationResult.
func operation[T any](
	validate func(T) error,
	run func(ctx context.Context, owner, portfolioID string, req T) (*service.OperationResult, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := validate(req); err != nil {
			response.RespondServiceError(w, err)
			return
		}

		res, err := run(r.Context(), owner(r), chi.URLParam(r, "uuid"), req)
		if err != nil {
			response.RespondServiceError(w, err)
			return
		}

		response.RespondJSON(w, http.StatusCreated, res)
	}
}

// Deposit records external money coming in.
//
// Endpoint: POST /api/portfolio/{uuid}/deposit
// Request Body: request.DepositRequest
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	operation(validation.ValidateDeposit, h.ledgerService.Deposit)(w, r)
}

// Withdraw records money leaving a cash balance.
//
// Endpoint: POST /api/portfolio/{uuid}/withdraw
// Request Body: request.WithdrawRequest
// Error: 422 Unprocessable Entity when the balance would go negative
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	operation(validation.ValidateWithdraw, h.ledgerService.Withdraw)(w, r)
}

// Exchange converts between the TRY and USD balances.
//
// Endpoint: POST /api/portfolio/{uuid}/exchange
// Request Body: request.ExchangeRequest
func (h *TransactionHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	operation(validation.ValidateExchange, h.ledgerService.Exchange)(w, r)
}

// Buy purchases a symbol.
//
// Endpoint: POST /api/portfolio/{uuid}/buy
// Request Body: request.TradeRequest
func (h *TransactionHandler) Buy(w http.ResponseWriter, r *http.Request) {
	operation(validation.ValidateTrade, h.ledgerService.Buy)(w, r)
}

// Sell disposes of a holding and reports the realized P&L.
//
// Endpoint: POST /api/portfolio/{uuid}/sell
// Request Body: request.TradeRequest
func (h *TransactionHandler) Sell(w http.ResponseWriter, r *http.Request) {
	operation(validation.ValidateTrade, h.ledgerService.Sell)(w, r)
}

// InterestIn moves cash into an interest deposit.
//
// Endpoint: POST /api/portfolio/{uuid}/interest/in
// Request Body: request.InterestInRequest
func (h *TransactionHandler) InterestIn(w http.ResponseWriter, r *http.Request) {
	operation(validation.ValidateInterestIn, h.ledgerService.InterestIn)(w, r)
}

// InterestOut returns an interest deposit with its earnings to cash.
//
// Endpoint: POST /api/portfolio/{uuid}/interest/out
// Request Body: request.InterestOutRequest
func (h *TransactionHandler) InterestOut(w http.ResponseWriter, r *http.Request) {
	operation(validation.ValidateInterestOut, h.ledgerService.InterestOut)(w, r)
}

// Transactions lists the portfolio's transactions, latest effective first.
//
// Endpoint: GET /api/portfolio/{uuid}/transactions
// Query Parameters:
//   - type: optional transaction type filter
//   - limit: optional maximum number of rows
//
// Response: 200 OK with array of model.Transaction
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := model.TransactionFilter{Type: model.TransactionType(q.Get("type"))}
	if filter.Type != "" && !filter.Type.Valid() {
		response.RespondError(w, http.StatusBadRequest, "invalid transaction type", string(filter.Type))
		return
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.RespondError(w, http.StatusBadRequest, "limit must be a positive integer", raw)
			return
		}
		filter.Limit = limit
	}

	txs, err := h.portfolioService.ListTransactions(r.Context(), owner(r), chi.URLParam(r, "uuid"), filter)
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, txs)
}

// DeleteTransaction removes a transaction and rebuilds the portfolio.
//
// Endpoint: DELETE /api/portfolio/{uuid}/transactions/{txId}
// Response: 200 OK with the rebuilt model.Portfolio
// Error: 404 Not Found if the transaction does not exist
// Error: 422 Unprocessable Entity if removing it would break a later balance
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledgerService.DeleteTransaction(r.Context(), owner(r), chi.URLParam(r, "uuid"), chi.URLParam(r, "txId"))
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, p)
}

// Rebuild recomputes the cached balances and holdings from the full log.
//
// Endpoint: POST /api/portfolio/{uuid}/rebuild
// Response: 200 OK with the rebuilt model.Portfolio
func (h *TransactionHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledgerService.Rebuild(r.Context(), owner(r), chi.URLParam(r, "uuid"))
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, p)
}
