package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/warp/harvest-planner/api"
	"github.com/warp/harvest-planner/metrics"
	"github.com/warp/harvest-planner/planner"
)

// serveCommand starts the API.
//
// STARTUP SEQUENCE:
//  1. Open the SQLite run store
//  2. Build the solver, metrics and planner service
//  3. Start the background solve queue
//  4. Serve until SIGINT/SIGTERM, then drain requests and the queue
func (a *app) serveCommand() *cobra.Command {
	var (
		port     int
		workers  int
		queueCap int
		jobTTL   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if port != 0 {
				cfg.Server.Port = port
			}
			log := a.logger.With().Str("component", "server").Logger()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			slv, err := a.solver()
			if err != nil {
				return err
			}

			svc := &planner.Service{Solver: slv, Store: store, Logger: a.logger}
			opts := api.RouterOptions{CORSOrigins: cfg.Server.CORSOrigins}
			if cfg.Metrics.Enabled {
				collector := metrics.NewCollector()
				svc.Observer = collector
				opts.Metrics = collector
				opts.MetricsPath = cfg.Metrics.Path
			}

			queue := api.NewSolveQueue(svc, workers, queueCap)
			queue.Logger = log
			queue.JobTTL = jobTTL
			queue.Start()
			defer queue.Stop()

			handler := api.NewHandler(svc)
			handler.Queue = queue
			handler.Limiter = rate.NewLimiter(rate.Limit(cfg.Server.SolveRate), cfg.Server.SolveBurst)
			handler.Planning = &cfg.Planning

			server := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      api.NewRouter(handler, opts),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: cfg.Solver.Timeout + time.Minute,
				IdleTimeout:  60 * time.Second,
			}
			if cfg.Solver.Timeout == 0 {
				// synchronous solves have no upper bound
				server.WriteTimeout = 0
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().
					Str("addr", server.Addr).
					Str("solver", slv.Name()).
					Str("db", cfg.Database.Path).
					Msg("server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			log.Info().Msg("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			log.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Background solve workers")
	cmd.Flags().IntVar(&queueCap, "queue", 16, "Queued async solves before rejecting")
	cmd.Flags().DurationVar(&jobTTL, "job-ttl", api.DefaultJobTTL, "How long finished async jobs stay readable")

	return cmd
}
