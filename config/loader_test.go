package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "api:\n  key: test-key\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.API.Endpoint)
	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "stop_monitoring", cfg.Output.BaseName)
	assert.Equal(t, 16181, cfg.Server.Port)
	assert.GreaterOrEqual(t, cfg.Retrieval.MaxWorkers, 1)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := writeConfig(t, "output:\n  format: csv\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvSelectedTowns, "Paris, Versailles")
	t.Setenv(EnvMaxWorkers, "7")

	path := writeConfig(t, "api:\n  key: file-key\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.API.Key)
	assert.Equal(t, []string{"Paris", "Versailles"}, cfg.Retrieval.SelectedTowns)
	assert.Equal(t, 7, cfg.Retrieval.MaxWorkers)
}

func TestLoad_InvalidFormat(t *testing.T) {
	path := writeConfig(t, "api:\n  key: k\noutput:\n  format: parquet\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestSplitTowns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single town",
			input:    "Paris",
			expected: []string{"Paris"},
		},
		{
			name:     "trims whitespace",
			input:    " Paris , Versailles ",
			expected: []string{"Paris", "Versailles"},
		},
		{
			name:     "keeps duplicates",
			input:    "Paris,Paris",
			expected: []string{"Paris", "Paris"},
		},
		{
			name:     "drops empty entries",
			input:    "Paris,,",
			expected: []string{"Paris"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitTowns(tt.input))
		})
	}
}
