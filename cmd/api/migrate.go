package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPostgres(cmd, func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool, logger *zap.Logger) error {
					return persistence.RunMigrations(ctx, pool, logger)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPostgres(cmd, func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool, logger *zap.Logger) error {
					return persistence.MigrationStatus(ctx, pool, logger)
				})
			},
		},
	)
	return cmd
}
