package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "net/http/pprof"

	"github.com/codice/inventory-api/catalog"
	"github.com/codice/inventory-api/config"
	"github.com/codice/inventory-api/data"
	"github.com/codice/inventory-api/forecast"
	"github.com/codice/inventory-api/handlers"
	"github.com/codice/inventory-api/health"
	"github.com/codice/inventory-api/inventory/advisor"
	"github.com/codice/inventory-api/inventory/allocator"
	"github.com/codice/inventory-api/inventory/ledger"
	"github.com/codice/inventory-api/logging"
	"github.com/codice/inventory-api/scheduler"
	"github.com/codice/inventory-api/server"
	"github.com/codice/inventory-api/validation"
)

func init() {
	// Get the working directory and read the env variables
	err := godotenv.Load()
	if err != nil {
		// If failed, try loading from executable directory
		ex, err := os.Executable()
		if err != nil {
			logging.Error("Failed to get executable path", "error", err)
			os.Exit(1)
		}

		exPath := filepath.Dir(ex)

		err = os.Chdir(exPath)
		if err != nil {
			logging.Error("Failed to change directory", "error", err)
			os.Exit(1)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	// Initialize slog for structured logging to console and file
	logging.InitLogger("logs")

	// Core stores
	catalogStore := catalog.NewContainer()
	lotLedger := ledger.New()
	forecaster := forecast.NewSeasonal()
	board := data.NewBoard()

	// Reload swaps the catalog atomically and reseeds the forecaster so
	// demand rates always match the loaded item set.
	reload := func() error {
		seed, err := catalog.Reload(catalogStore, cfg.CatalogSeedPath)
		if err != nil {
			return err
		}
		if seed == nil {
			// A concurrent reload won the race, nothing to reseed
			return nil
		}
		forecaster.ClearRates()
		for _, d := range seed.Demand {
			forecaster.SetRate(d.SKU, d.BranchID, d.DailyRate)
		}
		return nil
	}

	if err := reload(); err != nil {
		logging.Error("Failed to load catalog seed", "error", err, "path", cfg.CatalogSeedPath)
		os.Exit(1)
	}

	lookahead := time.Duration(cfg.LookaheadDays) * 24 * time.Hour
	expiryRisk := time.Duration(cfg.ExpiryRiskDays) * 24 * time.Hour
	advisorInterval := time.Duration(cfg.AdvisorIntervalMinutes) * time.Minute

	// Domain services
	dispenser := allocator.New(lotLedger)
	advisorEngine := advisor.New(lotLedger, catalogStore, forecaster, lookahead, expiryRisk)
	checker := health.NewChecker(catalogStore, lotLedger, board, advisorInterval)
	validator := validation.New()

	// Background advisor runs and daily catalog reloads
	sched := scheduler.New(advisorEngine, board, reload, advisorInterval)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	handler := handlers.New(catalogStore, lotLedger, dispenser, advisorEngine, board, checker, validator)
	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	// Create a context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
