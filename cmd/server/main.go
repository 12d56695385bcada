package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/config"
	"github.com/Simplici0/cotizador/internal/db"
	"github.com/Simplici0/cotizador/internal/logger"
	"github.com/Simplici0/cotizador/internal/metrics"
	"github.com/Simplici0/cotizador/internal/migrations"
	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/quote"
	"github.com/Simplici0/cotizador/internal/seed"
	"github.com/Simplici0/cotizador/internal/store"
	"github.com/Simplici0/cotizador/internal/tables"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

// loadReferenceData loads the pricing tables and writes their coefficients to
// the database, which is where the engine reads them from. The demo price list
// is only seeded when SeedOnStart is set.
func loadReferenceData(ctx context.Context, cfg config.Config, database *sql.DB, zl *zap.Logger) (tables.Tables, error) {
	tbl, err := tables.Load(cfg.TablesPath)
	if err != nil {
		return tables.Tables{}, err
	}

	var stats seed.Stats
	if cfg.SeedOnStart {
		stats, err = seed.Run(ctx, database, seed.Demo(tbl.Coefficients))
	} else {
		stats, err = seed.SyncCoefficients(ctx, database, tbl.Coefficients)
	}
	if err != nil {
		return tables.Tables{}, err
	}
	zl.Info("reference data loaded",
		zap.Bool("demo_seed", cfg.SeedOnStart),
		zap.String("tables_path", cfg.TablesPath),
		zap.Int("inserts", stats.Inserts),
		zap.Int("updates", stats.Updates),
	)
	return tbl, nil
}

func run(cfg config.Config, zl *zap.Logger) error {
	for _, w := range cfg.Warnings() {
		zl.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, zl.Named("migrations")); err != nil {
		return err
	}

	tbl, err := loadReferenceData(ctx, cfg, database, zl)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine := pricing.NewEngine(store.NewReader(database), zl, pricing.Options{
		StrictCatalog: cfg.StrictCatalog,
		Processes:     tbl.Processes,
		Observer:      m,
	})
	svc := quote.NewService(engine, store.NewQuoteRepository(database), m, zl, cfg.Currency)

	srv := &server{svc: svc, db: database, log: zl.Named("http"), gatherer: reg}
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", httpSrv.Addr), zap.String("env", cfg.Env))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zl.Info("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
