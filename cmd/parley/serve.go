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

	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Exposes conversations over a JSON API, with Server-Sent Events per conversation and Prometheus metrics at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.HTTP.Port, _ = cmd.Flags().GetInt("port")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := a.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts := []httpAdapter.Option{
				httpAdapter.WithLogger(a.logger),
				httpAdapter.WithMaxInput(a.cfg.Input.MaxSize),
			}
			if rt.metrics != nil {
				opts = append(opts, httpAdapter.WithMetricsHandler(rt.metrics))
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.HTTP.Port),
				Handler:           httpAdapter.NewHandler(rt.engine, opts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "address", srv.Addr, "store", a.cfg.Store.Backend)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown did not complete: %w", err)
				}
				return nil
			}
		},
	}
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	return cmd
}
