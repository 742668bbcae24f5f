package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables honored on top of config.yml.
const (
	EnvAPIKey        = "IDF_MOBILITE_API_KEY"
	EnvSelectedTowns = "SELECTED_TOWNS"
	EnvMaxWorkers    = "MAX_WORKERS"
)

// DefaultEndpoint is the PRIM stop monitoring endpoint.
const DefaultEndpoint = "https://prim.iledefrance-mobilites.fr/marketplace/stop-monitoring"

// Validation sentinels; all are fatal before any network activity.
var (
	ErrMissingAPIKey       = errors.New("missing IDF Mobilité API key")
	ErrInvalidWorkerCount  = errors.New("max workers must be a positive integer")
	ErrInvalidOutputFormat = errors.New("output format must be csv or sqlite")
	ErrMissingReferential  = errors.New("missing stop referential source")
)

// Load reads the optional YAML configuration file, applies environment
// overrides and defaults, and validates the result. An empty path falls back
// to config.yml in the working directory; a missing optional file is not an
// error.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	explicit := path != ""
	if path == "" {
		path = "config.yml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv(EnvSelectedTowns); v != "" {
		cfg.Retrieval.SelectedTowns = SplitTowns(v)
	}
	if v := os.Getenv(EnvMaxWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retrieval.MaxWorkers = n
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.API.Endpoint == "" {
		cfg.API.Endpoint = DefaultEndpoint
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = 30
	}
	if cfg.Retrieval.MaxWorkers == 0 {
		cfg.Retrieval.MaxWorkers = DefaultMaxWorkers()
	}
	if cfg.Referential.Source == "" {
		cfg.Referential.Source = "config/stop_referential.json"
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "data"
	}
	if cfg.Output.BaseName == "" {
		cfg.Output.BaseName = "stop_monitoring"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}
	if cfg.Output.RawDirectory == "" {
		cfg.Output.RawDirectory = "data/raw"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16181
	}
}

// Validate checks the assembled configuration. Struct tags cover ranges and
// formats; the explicit checks cover required settings.
func (c *AppConfig) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.API.Key == "" {
		return ErrMissingAPIKey
	}
	if c.Retrieval.MaxWorkers <= 0 {
		return ErrInvalidWorkerCount
	}
	if c.Output.Format != "csv" && c.Output.Format != "sqlite" {
		return ErrInvalidOutputFormat
	}
	if c.Referential.Source == "" {
		return ErrMissingReferential
	}
	return nil
}

// DefaultMaxWorkers returns available parallelism minus one, minimum 1.
func DefaultMaxWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// SplitTowns parses a comma-separated town list, trimming whitespace and
// dropping empty entries. Duplicates are kept and processed independently.
func SplitTowns(s string) []string {
	var towns []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			towns = append(towns, t)
		}
	}
	return towns
}
