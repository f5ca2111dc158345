package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/middleware"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/config"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/service"
)

// Services holds the services exposed over HTTP.
type Services struct {
	System    *service.SystemService
	Portfolio *service.PortfolioService
	Ledger    *service.LedgerService
	Report    *service.ReportService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Use(custommiddleware.RequireOwner)

			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio, svc.Report)
			transactionHandler := handlers.NewTransactionHandler(svc.Ledger, svc.Portfolio)

			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)

				r.Get("/", portfolioHandler.GetPortfolio)
				r.Get("/summary", portfolioHandler.Summary)
				r.Get("/pnl", portfolioHandler.PnL)

				r.Post("/deposit", transactionHandler.Deposit)
				r.Post("/withdraw", transactionHandler.Withdraw)
				r.Post("/exchange", transactionHandler.Exchange)
				r.Post("/buy", transactionHandler.Buy)
				r.Post("/sell", transactionHandler.Sell)
				r.Post("/interest/in", transactionHandler.InterestIn)
				r.Post("/interest/out", transactionHandler.InterestOut)

				r.Post("/rebuild", transactionHandler.Rebuild)

				r.Get("/transactions", transactionHandler.Transactions)
				r.With(custommiddleware.ValidateUUIDParams("txId")).
					Delete("/transactions/{txId}", transactionHandler.DeleteTransaction)
			})
		})
	})

	return r
}
