package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/patcky/dema-ai-assignment/internal/config"
	"github.com/patcky/dema-ai-assignment/internal/ledger"
	"github.com/patcky/dema-ai-assignment/internal/logging"
	"github.com/patcky/dema-ai-assignment/internal/reconcile"
	"github.com/patcky/dema-ai-assignment/internal/schema"
)

func main() {
	var (
		envFile   string
		sourceDir string
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile CSV extracts into the reporting database",
		Long: `Reconcile ingests the periodic CSV extracts (products, orders),
validates them against their declared schemas, archives every incoming
row to the raw tables and upserts valid rows into the canonical
tables. Failures are logged as they occur and persisted to the errors
table at the end of the run.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Overload(envFile); err != nil {
					return fmt.Errorf("load env file %s: %w", envFile, err)
				}
			} else if err := godotenv.Overload(); err != nil {
				slog.Info("no .env file found, using environment variables")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if sourceDir != "" {
				cfg.Source.Dir = sourceDir
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.Flags().StringVar(&envFile, "env-file", "", "path to .env file (default: ./.env if present)")
	rootCmd.Flags().StringVar(&sourceDir, "source-dir", "", "directory containing the CSV extracts (overrides SOURCE_DATA_DIR)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "minimum log level: debug, info, warn, error (overrides LOG_LEVEL)")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	// Run duration is reported regardless of outcome.
	defer func() {
		slog.Info("script execution complete", "duration", time.Since(start))
	}()

	slog.Info("executing reconciliation",
		"env", cfg.Env,
		"db", cfg.Database.Name,
		"schema", cfg.Database.Schema,
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"source_dir", cfg.Source.Dir,
	)

	// Give a co-started database time to come up before connecting.
	if cfg.Database.ConnectWait > 0 {
		time.Sleep(cfg.Database.ConnectWait)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	led := ledger.New(slog.Default(), cfg.Database.Schema)
	pipeline := reconcile.New(pool, led, cfg.Database.Schema, cfg.Source.Dir, schema.Tables())

	return pipeline.Run(ctx)
}
