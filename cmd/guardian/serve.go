package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/cobra"

	"github.com/cwbudde/guardian-dsp/internal/budget"
	"github.com/cwbudde/guardian-dsp/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve feature vectors over WebSocket",
		Long: `Serve accepts WebSocket connections on /v1/stream. Each binary message of
640 bytes is one frame of little-endian PCM16 and is answered with the
frame's feature vector as JSON. A text message "reset" restarts the
stream. /healthz reports liveness.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.runServe(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("statsd", "", "DogStatsD address for stream and budget metrics")
	cmd.Flags().Int("coherence-channel", 0, "channel whose output feeds the coherence search")
	cmd.Flags().String("zcr-source", "raw", "zero-crossing input: raw or a channel index")

	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	metrics, err := budget.NewStatsd(a.cfg.Metrics.StatsdAddr, a.cfg.Metrics.Tags...)
	if err != nil {
		return err
	}
	defer metrics.Close()

	// Fail before listening if the frontend settings are unusable.
	if _, err := a.newFrontend(); err != nil {
		return err
	}

	sc := a.cfg.Server
	logger := logging.WithFields(logging.Fields{"component": "server"})

	srv := server.New(a.newFrontend,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithSupervisor(budget.New(
			budget.WithLimits(a.cfg.Budget),
			budget.WithMetrics(metrics),
			budget.WithLogger(logger),
		)),
		server.WithAllowedOrigins(sc.AllowedOrigins...),
		server.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout, sc.ShutdownTimeout),
	)

	return srv.ListenAndServe(ctx, sc.Addr)
}
