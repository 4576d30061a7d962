package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/agirodo/cadastro/internal/app"
	"github.com/agirodo/cadastro/internal/audit"
	"github.com/agirodo/cadastro/internal/config"
	"github.com/agirodo/cadastro/internal/export"
	"github.com/agirodo/cadastro/internal/ingest"
	"github.com/agirodo/cadastro/internal/logging"
	"github.com/agirodo/cadastro/internal/record"
	"github.com/agirodo/cadastro/internal/reconcile"
	"github.com/agirodo/cadastro/internal/store"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration. A missing database password is the
	// one startup condition the process refuses to run without.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// Exported amounts serialize as JSON numbers, matching the ingested shape.
	decimal.MarshalJSONWithoutQuotes = true

	slog.Info("configuration loaded",
		"db_host", cfg.Database.Host,
		"db_name", cfg.Database.Name,
		"db_max_conns", cfg.Database.MaxConns,
	)

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("connected to database", "name", cfg.Database.Name)

	if err := store.Init(ctx, pool); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	aud := audit.New(pool)
	aud.Log(ctx, audit.LevelInfo, "application started")

	records := record.New(pool)
	engine := reconcile.New(pool, aud)
	client := &http.Client{Timeout: cfg.Fetch.Timeout}
	adapter := ingest.New(pool, aud, client, nil)
	exporter := export.New(records, aud, cfg.Export.Dir)
	publisher := export.NewPublisher(exporter, aud, client)

	err = app.Run(app.Deps{
		Records:   records,
		Engine:    engine,
		Adapter:   adapter,
		Exporter:  exporter,
		Publisher: publisher,
		Audit:     aud,
		Config:    cfg,
	})
	if err != nil {
		slog.Error("terminal session failed", "error", err)
		os.Exit(1)
	}

	aud.Log(ctx, audit.LevelInfo, "application stopped")
}
