package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/pgexplorer/binder"
	"github.com/spektr-org/pgexplorer/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP (default).",
		Long: `Serve loads the dataset once and serves the dashboard, its JSON API
and Prometheus metrics until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	table, err := a.load()
	if err != nil {
		return err
	}

	metrics := server.NewMetrics()
	b, err := a.newBinder(table, binder.WithObserver(metrics.Observe))
	if err != nil {
		return err
	}
	sel := b.State()
	a.logger.Info("initial selection",
		zap.String("x", sel.X), zap.String("y", sel.Y), zap.String("z", sel.Z),
		zap.Int("year_min", sel.YearMin), zap.Int("year_max", sel.YearMax))

	srv := server.New(b, server.WithLogger(a.logger), server.WithMetrics(metrics))
	return srv.ListenAndServe(ctx, a.cfg.Addr(), shutdownTimeout)
}
