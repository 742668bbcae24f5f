package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/internal/logger"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/sink"
)

// Service is the boundary the CLI and HTTP API call: retrieve stop monitoring
// data for a set of towns.
type Service struct {
	cfg     *config.AppConfig
	catalog *referential.Catalog
	log     *logger.Logger
}

// NewService creates a service over a loaded catalog.
func NewService(cfg *config.AppConfig, catalog *referential.Catalog, log *logger.Logger) *Service {
	return &Service{cfg: cfg, catalog: catalog, log: log}
}

// Retrieve runs the full workflow: validate the town list, select stops,
// fetch and flatten concurrently, persist rows and return the run summary.
// Selection failure aborts before any fetch is attempted. Each run gets a
// fresh client so the fetch memo never spans runs.
func (s *Service) Retrieve(ctx context.Context, towns []string) (*Result, error) {
	trimmed := make([]string, 0, len(towns))
	for _, town := range towns {
		town = strings.TrimSpace(town)
		if town != "" {
			trimmed = append(trimmed, town)
		}
	}
	if len(trimmed) == 0 {
		return nil, ErrNoTowns
	}

	stops, err := s.catalog.SelectStops(trimmed)
	if err != nil {
		return nil, err
	}
	s.log.Info("stops selected", "towns", strings.Join(trimmed, ","), "stops", len(stops))

	out, err := sink.Open(s.cfg.Output)
	if err != nil {
		return nil, err
	}
	defer func() { _ = out.Close() }()

	var archiver *sink.RawArchiver
	if s.cfg.Output.ArchiveRaw {
		archiver = sink.NewRawArchiver(s.cfg.Output.RawDirectory)
	}

	orch := NewOrchestrator(NewClient(s.cfg.API), out, s.log, Options{
		Workers:           s.cfg.Retrieval.MaxWorkers,
		TaskTimeout:       time.Duration(s.cfg.API.TimeoutSeconds) * time.Second,
		RetryAttempts:     s.cfg.Retrieval.RetryAttempts,
		RetryInitialDelay: time.Duration(s.cfg.Retrieval.RetryInitialDelayMS) * time.Millisecond,
		Archiver:          archiver,
	})
	return orch.Execute(ctx, stops)
}
