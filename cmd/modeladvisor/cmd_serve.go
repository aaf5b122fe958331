package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/recommend"
	"github.com/spboyer/modeladvisor/internal/webapi"
	"github.com/spboyer/modeladvisor/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var port int
	var host string
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the classification and recommendation REST API",
		Long: `Start an HTTP server exposing the classification pipeline and the tiered
recommendation engine.

Endpoints:
  GET  /api/health     Health check
  GET  /api/taxonomy   List classification targets
  POST /api/classify   Classify task text
  POST /api/clarify    Answer a clarification question
  POST /api/recommend  Tiered model shortlist for text or a slice

The server binds to loopback by default. Classification state is held per
process; restarting the server clears the session cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			logger := slog.Default()
			handlers := webapi.NewHandlers(
				a.newPipeline(logger),
				recommend.NewEngine(a.cat),
				a.tax,
				models.FilterState{
					MinAccuracyThreshold: a.cfg.Recommend.MinAccuracy,
					DeploymentTarget:     a.cfg.Recommend.DeploymentTarget,
				},
			)

			if port == 0 {
				port = a.cfg.Server.Port
			}
			if host == "" {
				host = a.cfg.Server.Host
			}

			srv := webserver.New(webserver.Config{
				Port:           port,
				Host:           host,
				AllowedOrigins: origins,
				Logger:         logger,
			}, handlers)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, 3000)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind (default 127.0.0.1)")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "Allowed CORS origins for browser clients")

	return cmd
}
