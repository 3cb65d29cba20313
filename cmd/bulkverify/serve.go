package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/optimode/bulkverify/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			v, cleanup, err := newValidator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := &http.Server{
				Addr: cfg.Server.Addr(),
				Handler: httpapi.NewRouter(v, httpapi.Options{
					AllowedOrigins: cfg.Server.AllowedOrigins,
					MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				}, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
