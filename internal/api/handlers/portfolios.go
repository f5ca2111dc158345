package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/request"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/response"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/service"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/validation"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
// It parses requests and delegates to the portfolio and report services.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	reportService    *service.ReportService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependencies.
func NewPortfolioHandler(portfolioService *service.PortfolioService, reportService *service.ReportService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		reportService:    reportService,
	}
}

// Portfolios lists the caller's portfolios.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with array of model.Portfolio
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.portfolioService.ListPortfolios(r.Context(), owner(r))
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolios)
}

// CreatePortfolio creates an empty portfolio.
//
// Endpoint: POST /api/portfolio
// Request Body: request.CreatePortfolioRequest
// Response: 201 Created with model.Portfolio
// Error: 400 Bad Request on validation failure
// Error: 409 Conflict if the caller already has a portfolio with that name
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateCreatePortfolio(req); err != nil {
		response.RespondServiceError(w, err)
		return
	}

	p, err := h.portfolioService.CreatePortfolio(r.Context(), owner(r), req)
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, p)
}

// GetPortfolio returns one portfolio with its holdings.
//
// Endpoint: GET /api/portfolio/{uuid}
// Response: 200 OK with service.PortfolioDetail
// Error: 404 Not Found if the portfolio does not exist for the caller
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	detail, err := h.portfolioService.GetPortfolio(r.Context(), owner(r), chi.URLParam(r, "uuid"))
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, detail)
}

// Summary returns the live valuation with nominal and real performance.
//
// Endpoint: GET /api/portfolio/{uuid}/summary
// Response: 200 OK with service.Summary; degraded data is flagged, not failed
// Error: 404 Not Found if the portfolio does not exist for the caller
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.reportService.GetSummary(r.Context(), owner(r), chi.URLParam(r, "uuid"))
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, sum)
}

// PnL returns the profit and loss over a period.
//
// Endpoint: GET /api/portfolio/{uuid}/pnl
// Query Parameters:
//   - period: 1d, 1w, 1m, 3m, 6m, ytd, 1y or all (default all)
//   - start, end: explicit range (YYYY-MM-DD), overrides period
//   - include: comma separated components (cash_try, cash_usd, interest_try, interest_usd, symbols)
//
// Response: 200 OK with service.PeriodPnL
// Error: 400 Bad Request for an unknown period or invalid range
func (h *PortfolioHandler) PnL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var include []string
	if raw := q.Get("include"); raw != "" {
		include = strings.Split(raw, ",")
	}

	pnl, err := h.reportService.CalculatePeriodPnL(r.Context(), owner(r), chi.URLParam(r, "uuid"), service.PnLQuery{
		Period:  q.Get("period"),
		Start:   q.Get("start"),
		End:     q.Get("end"),
		Include: include,
	})
	if err != nil {
		response.RespondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, pnl)
}
