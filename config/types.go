package config

// APIConfig contains IDF Mobilité stop monitoring API settings
type APIConfig struct {
	Endpoint       string `yaml:"endpoint" validate:"omitempty,url"`
	Key            string `yaml:"key"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"gte=0"`
}

// RetrievalConfig contains retrieval workflow settings
type RetrievalConfig struct {
	SelectedTowns       []string `yaml:"selectedTowns"`
	MaxWorkers          int      `yaml:"maxWorkers" validate:"gte=0"`
	RetryAttempts       int      `yaml:"retryAttempts" validate:"gte=0"`
	RetryInitialDelayMS int      `yaml:"retryInitialDelayMS" validate:"gte=0"`
}

// ReferentialConfig contains the stop referential source.
// Source is a local file path or an http(s) URL.
type ReferentialConfig struct {
	Source string `yaml:"source"`
}

// OutputConfig contains output artifact settings
type OutputConfig struct {
	Directory    string `yaml:"directory"`
	BaseName     string `yaml:"baseName"`
	Format       string `yaml:"format" validate:"omitempty,oneof=csv sqlite"`
	ArchiveRaw   bool   `yaml:"archiveRaw"`
	RawDirectory string `yaml:"rawDirectory"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	API         APIConfig         `yaml:"api"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Referential ReferentialConfig `yaml:"referential"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
}
