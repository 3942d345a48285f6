package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/guiapi/pkg/adapters/http"
	"github.com/aretw0/guiapi/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a GUI API endpoint backed by canned fixtures",
	Long: `Starts an HTTP endpoint answering GUI API requests from a fixture file
(yaml or json). Useful to develop pages against a fake server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("fixtures") {
			cfg.Serve.Fixtures, _ = cmd.Flags().GetString("fixtures")
		}
		if cmd.Flags().Changed("port") {
			cfg.Serve.Port, _ = cmd.Flags().GetInt("port")
		}
		if cfg.Serve.Fixtures == "" {
			return errors.New("a fixture file is required (--fixtures or serve.fixtures)")
		}

		table, err := httpAdapter.LoadFixtures(cfg.Serve.Fixtures)
		if err != nil {
			return err
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithPath(cfg.Serve.Path),
			httpAdapter.WithStringEncoding(cfg.Serve.StringEncoding),
		}
		if cfg.Serve.Metrics {
			opts = append(opts, httpAdapter.WithMetrics(observability.NewMetrics()))
		}
		if cfg.Serve.Validate {
			opts = append(opts, httpAdapter.WithRequestValidation())
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Serve.Port),
			Handler: httpAdapter.NewHandler(table, opts...),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting GUI API endpoint", "address", srv.Addr, "path", cfg.Serve.Path, "actions", table.Names())
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("Start shutdown")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				return srv.Close()
			}
			logger.Info("GUI API endpoint stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("fixtures", "f", "", "Fixture file with canned results")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
