package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/internal/logger"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stop monitoring API over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "path to config.yml")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}

	log, err := logger.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	catalog, err := referential.Load(cfg.Referential.Source)
	if err != nil {
		return err
	}
	log.Info("referential loaded", "stops", catalog.Len())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv := server.New(cfg, catalog, log)
	if err := srv.WatchReferential(ctx); err != nil {
		log.Warn("referential watcher unavailable", "error", err)
	}
	srv.Start()
	srv.HandleGracefulShutdown()
	return nil
}
