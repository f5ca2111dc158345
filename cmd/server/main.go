package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/bls"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/config"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/database"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/inflation"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/logging"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/provider"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/repository"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/returns"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/scheduler"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/service"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/tcmb"
	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", true)
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	// Open database connection and apply migrations
	db, err := database.Open(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info().Str("path", cfg.Database.Path).Msg("Connected to database")

	// Upstream clients
	pc := cfg.Providers
	market := yahoo.NewFinanceClient(
		yahoo.WithBaseURL(pc.YahooBaseURL),
		yahoo.WithLogger(log),
		yahoo.WithRateLimit(pc.RequestsPerSec),
		yahoo.WithTimeout(pc.Timeout),
	)
	cpiClient := bls.NewClient(
		bls.WithBaseURL(pc.BLSBaseURL),
		bls.WithSeriesID(pc.BLSSeriesID),
		bls.WithExpectationsURL(pc.ExpectationsURL),
		bls.WithLogger(log),
		bls.WithRateLimit(pc.RequestsPerSec),
		bls.WithTimeout(pc.Timeout),
	)
	bankClient := tcmb.NewClient(
		tcmb.WithURL(pc.TCMBURL),
		tcmb.WithLogger(log),
		tcmb.WithRateLimit(pc.RequestsPerSec),
		tcmb.WithTimeout(pc.Timeout),
	)

	prices := provider.NewCachedPrices(market, pc.PriceCacheTTL, log)
	fx := provider.NewCachedFx(market, pc.FxCacheTTL, log)
	cpi := provider.NewCachedCPI(cpiClient, pc.CPICacheTTL, log)
	bank := provider.NewCachedBank(bankClient, fx, pc.BankSpread, pc.FxCacheTTL, log)

	// Create services
	store := repository.NewStore(db)
	calc := returns.NewCalculator(prices, fx, log,
		returns.WithLiveWindow(pc.LiveWindow),
		returns.WithFetchTimeout(pc.Timeout),
	)
	services := api.Services{
		System:    service.NewSystemService(db),
		Portfolio: service.NewPortfolioService(store, time.Now, log),
		Ledger:    service.NewLedgerService(store, prices, fx, log, service.WithLedgerTimeout(pc.Timeout)),
		Report:    service.NewReportService(store, calc, inflation.NewAdjuster(cpi, log), bank, time.Now, log),
	}

	// Background cache warm-up
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New([]scheduler.Job{
			{Name: "fx", Spec: cfg.Scheduler.FxSpec, Refresher: fx},
			{Name: "cpi", Spec: cfg.Scheduler.CPISpec, Refresher: cpi},
		}, log)
		if err != nil {
			return err
		}
		if err := sched.RunNow(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial cache warm-up failed, continuing with cold caches")
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(services, cfg, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server exited")
	return nil
}
