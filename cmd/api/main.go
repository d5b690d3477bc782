package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/observability"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helpdesk",
		Short: "Northgate helpdesk API",
		Long:  `Helpdesk ticketing backend: HTTP API server, database migrations and user administration.`,
		// serve is the default so the container entrypoint needs no arguments.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newUserCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Printf("helpdesk: %v", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
