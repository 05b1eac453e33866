package main

import (
	"fmt"

	"receipts-backend/internal/app"
	"receipts-backend/internal/config"
	"receipts-backend/internal/db"
	"receipts-backend/internal/logging"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "receipts",
		Short:         "Users, sessions and photo uploads backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Run(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				if cfg.Database.Driver != config.DriverPostgres {
					return fmt.Errorf("migrate needs the postgres driver, got %q", cfg.Database.Driver)
				}
				pool, err := db.Open(cmd.Context(), cfg.Database)
				if err != nil {
					return err
				}
				defer pool.Close()
				return db.Migrate(cmd.Context(), pool)
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Remove orphaned photo files and expired sessions",
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := app.Build(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer c.Close()

				report, err := c.Reconcile(cmd.Context())
				if err != nil {
					return err
				}
				slog.Info("Reconcile finished",
					"files_scanned", report.Files.Scanned,
					"files_removed", report.Files.Removed,
					"sessions_purged", report.ExpiredSessions)
				return nil
			},
		},
	)

	return root
}
