package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Deployer/internal/api"
)

// DefaultServeAddr — адрес status API, если не задан ни --addr, ни metrics_addr.
const DefaultServeAddr = ":8090"

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status API and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := app.logger

			catalog, err := app.catalog()
			if err != nil {
				return err
			}

			cfg := api.Config{Catalog: catalog, Logger: logger}
			if app.cfg.DBURL != "" {
				runs, closeHistory, err := app.openHistory(ctx)
				if err != nil {
					logger.Warn("run history not available", "error", err)
				} else {
					defer closeHistory()
					cfg.Runs = runs
				}
			}

			mux := http.NewServeMux()
			api.NewHandler(cfg).RegisterRoutes(mux)
			mux.Handle("GET /metrics", promhttp.Handler())

			if addr == "" {
				addr = app.cfg.MetricsAddr
			}
			if addr == "" {
				addr = DefaultServeAddr
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("status API stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: metrics_addr or "+DefaultServeAddr+")")
	return cmd
}
