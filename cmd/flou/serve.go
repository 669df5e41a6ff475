package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"flou/internal/config"
	"flou/internal/logging"
	"flou/internal/metrics"
	"flou/internal/server"
)

var serveFlags struct {
	host string
	port int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes the coaching dialogue over HTTP: a blocking chat
endpoint, an SSE streaming endpoint, session management and Prometheus
metrics. Configuration comes from flou.yaml and FLOU_* environment
variables; flags override the listener address.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVar(&serveFlags.port, "port", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveFlags.host != "" {
		cfg.Server.Host = serveFlags.host
	}
	if serveFlags.port != 0 {
		cfg.Server.Port = serveFlags.port
	}

	logging.SetLevel(logging.ParseLevel(cfg.Log.Level))
	logger := logging.NewComponentLogger("serve")

	deps, err := buildDeps(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	observer, err := metrics.NewPrometheusObserver("flou", prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	deps.Orchestrator.WithMetrics(observer)

	serverCfg := server.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	serverCfg.EnableCORS = cfg.Server.EnableCORS
	serverCfg.Debug = cfg.Log.Level == "debug"

	srv := server.New(serverCfg, deps.Orchestrator, store, deps.Client.Model(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return err
	}
	return <-errCh
}
