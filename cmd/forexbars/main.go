// Package main runs one forex-bar pipeline cycle: fetch recent bars from
// TwelveData, enrich them with pip metrics, and upsert them into Postgres.
// Designed to be invoked by an external scheduler; a non-zero exit code
// reports an unrecovered failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"forex-bar-lab/internal/config"
	"forex-bar-lab/internal/observability"
	"forex-bar-lab/internal/pipeline"
	"forex-bar-lab/internal/storage"
	"forex-bar-lab/internal/storage/memory"
	pgstore "forex-bar-lab/internal/storage/postgres"
	"forex-bar-lab/internal/twelvedata"
)

func main() {
	symbol := flag.String("symbol", "", "Currency pair, e.g. EUR/USD (overrides SYMBOL)")
	interval := flag.String("interval", "", "Bar interval, e.g. 1min (overrides INTERVAL)")
	outputSize := flag.Int("outputsize", 0, "Number of bars to fetch (overrides OUTPUTSIZE)")
	dryRun := flag.Bool("dry-run", false, "Fetch and enrich without touching Postgres")
	envFile := flag.String("env-file", "", "Path to .env file (default .env if present)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[forexbars] ", log.LstdFlags)

	if err := run(logger, *symbol, *interval, *outputSize, *dryRun, *envFile, *metricsAddr); err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, symbol, interval string, outputSize int, dryRun bool, envFile, metricsAddr string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := config.Load(!dryRun)
	if err != nil {
		return err
	}
	if symbol != "" {
		cfg.Symbol = symbol
	}
	if interval != "" {
		cfg.Interval = interval
	}
	if outputSize > 0 {
		cfg.OutputSize = outputSize
	}

	// Cancel on SIGINT/SIGTERM so a terminated run rolls back cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("")
	if metricsAddr != "" {
		go serveMetrics(logger, metricsAddr)
	}

	client := twelvedata.NewClient(cfg.APIKey, twelvedata.WithTimeout(cfg.FetchTimeout))

	var (
		schema storage.SchemaManager
		store  storage.BarStore
	)
	if dryRun {
		logger.Printf("dry run: bars will not be persisted")
		mem := memory.NewBarStore()
		schema, store = mem, mem
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.DB.DSN())
		if err != nil {
			return storage.NewError("connect", err)
		}
		defer pool.Close()
		schema = pgstore.NewSchema(pool)
		store = pgstore.NewBarStore(pool)
	}

	runner := pipeline.New(pipeline.Options{
		Fetcher:       client,
		SchemaManager: schema,
		BarStore:      store,
		Symbol:        cfg.Symbol,
		Interval:      cfg.Interval,
		OutputSize:    cfg.OutputSize,
		Logger:        logger,
		Metrics:       metrics,
	})

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if summary.RowsWritten == 0 {
		fmt.Println("No bars fetched; nothing to persist.")
		return nil
	}
	fmt.Printf("Upserted %d rows up to %s\n",
		summary.RowsWritten, summary.LatestTimestamp.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// serveMetrics exposes /metrics and /health for scrapes during the run.
func serveMetrics(logger *log.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Printf("Starting metrics server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("Metrics server error: %v", err)
	}
}
