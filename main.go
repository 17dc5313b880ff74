package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"listings-service/config"
	"listings-service/importer"
	"listings-service/server"
	"listings-service/storage"
	"listings-service/utils"
)

func main() {
	root := &cobra.Command{
		Use:           "listings-service",
		Short:         "Real-estate listings API and CSV importer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), importCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := utils.NewLogger(cfg.LogLevel)

			store, err := storage.Open(cfg.DSN(), cfg.MaxRetries, logger)
			if err != nil {
				logger.Errorf("Failed to connect to PostgreSQL: %v", err)
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg.HTTPAddr, store, logger)
			if err := srv.Run(ctx); err != nil {
				logger.Errorf("HTTP server failed: %v", err)
				return err
			}
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [csv-path]",
		Short: "Import a CSV extract of listings into the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := utils.NewLogger(cfg.LogLevel)

			path := cfg.CSVPath
			if len(args) == 1 {
				path = args[0]
			}

			store, err := storage.Open(cfg.DSN(), cfg.MaxRetries, logger)
			if err != nil {
				logger.Errorf("Failed to connect to PostgreSQL: %v", err)
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			imp := importer.New(store, logger)
			report, err := imp.Run(ctx, path)
			if err != nil {
				logger.Errorf("Import aborted: %v", err)
				if report != nil {
					logger.Infof("Partial results | imported: %d | failed: %d", report.Imported, report.Failed)
				}
				return err
			}
			return nil
		},
	}
}
