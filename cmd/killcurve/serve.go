package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"killcurve/adapters/api"
	"killcurve/internal/container"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port, overrides PORT")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := container.Open(ctx, cfg, log, version)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer c.Shutdown(context.Background())

	serverCfg := cfg.Server
	if servePort != "" {
		serverCfg.Port = servePort
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	srv := api.NewServer(log, serverCfg, c.AnalysisService, c.Exporter)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	// Wait for shutdown signal.
	sig := <-sigCh
	log.WithField("signal", sig).Info("Shutting down API server")
	cancel()

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stopping api server: %w", err)
	}

	return nil
}
