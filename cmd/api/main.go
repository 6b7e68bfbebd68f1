package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/config"
	"github.com/georgemunganga/storefront-backend/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Storefront HTTP API (runs serve when no command is given)",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap(ctx context.Context) (config.Config, *zap.Logger, *sql.DB, error) {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("build logger: %w", err)
	}
	if !envLoaded {
		logger.Info("no .env file found, using process environment")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return cfg, logger, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return cfg, logger, nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")
	return cfg, logger, db, nil
}
