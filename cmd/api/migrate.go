package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/georgemunganga/storefront-backend/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, db, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer db.Close()

		if _, err := db.ExecContext(cmd.Context(), migrations.Schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		logger.Info("schema applied")
		return nil
	},
}
