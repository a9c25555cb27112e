package main

import (
	"context"
	"fmt"

	"killcurve/internal/container"
	"killcurve/internal/migration"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the run archive schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := container.ConnectDatabase(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	log.WithField("version", migrator.Version()).Info("Migrations applied")
	return nil
}
