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

	"github.com/dvloznov/expense-bot/internal/api/handlers"
	"github.com/dvloznov/expense-bot/internal/api/middleware"
	"github.com/dvloznov/expense-bot/internal/app"
	"github.com/dvloznov/expense-bot/internal/tracing"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = c.cfg.Port
			}

			ctx := context.Background()

			shutdownTracing, err := tracing.Setup(ctx, c.cfg.OTelServiceName, c.cfg.OTelEndpoint)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					c.log.Error().Err(err).Msg("Failed to flush traces")
				}
			}()

			container, err := app.New(ctx, c.cfg, c.log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() {
				if err := container.Close(); err != nil {
					c.log.Error().Err(err).Msg("Failed to close clients")
				}
			}()

			return serve(c.log, port, newHandler(c.log, container.Service))
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP server port (defaults to PORT)")

	return cmd
}

// newHandler builds the routed, instrumented HTTP handler.
func newHandler(log zerolog.Logger, recorder handlers.ExpenseRecorder) http.Handler {
	mux := handlers.Routes(handlers.NewExpenseHandler(recorder))
	return otelhttp.NewHandler(middleware.Chain(log, mux), "expensebot")
}

// serve runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func serve(log zerolog.Logger, port string, handler http.Handler) error {
	server := &http.Server{
		Addr:        ":" + port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// One request waits on the model, the ledger and the chat API in turn.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", port).Msg("Starting expense bot server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: listen: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: forced shutdown: %w", err)
	}

	log.Info().Msg("Server exited")
	return nil
}
