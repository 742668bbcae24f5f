package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/internal/logger"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/monitoring"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Retrieve stop monitoring data for the selected towns",
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().String("towns", "", "comma-separated town names (defaults to SELECTED_TOWNS)")
	retrieveCmd.Flags().String("config", "", "path to config.yml")
	retrieveCmd.Flags().Int("workers", 0, "max concurrent workers (overrides config)")
	retrieveCmd.Flags().Bool("archive-raw", false, "archive raw API responses per stop")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Retrieval.MaxWorkers = workers
	}
	if archive, _ := cmd.Flags().GetBool("archive-raw"); archive {
		cfg.Output.ArchiveRaw = true
	}

	towns := cfg.Retrieval.SelectedTowns
	if flagTowns, _ := cmd.Flags().GetString("towns"); flagTowns != "" {
		towns = config.SplitTowns(flagTowns)
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

	svc := monitoring.NewService(cfg, catalog, log)
	result, err := svc.Retrieve(cmd.Context(), towns)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
