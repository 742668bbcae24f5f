package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/siri"
)

// Sink is an append-oriented tabular writer. Appends must tolerate batches
// whose column set differs from earlier ones: the stored schema widens to the
// union and prior rows are padded.
type Sink interface {
	Append(rows []siri.Row) error
	Path() string
	Close() error
}

// Open creates the sink selected by the output configuration, creating the
// output directory on demand.
func Open(cfg config.OutputConfig) (Sink, error) {
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", cfg.Directory, err)
	}
	base := filepath.Join(cfg.Directory, cfg.BaseName)
	switch cfg.Format {
	case "sqlite":
		return NewSQLiteSink(base + ".db")
	case "csv", "":
		return NewCSVSink(base + ".csv"), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", cfg.Format)
	}
}

// columnUnion returns the sorted union of column names across rows.
func columnUnion(rows []siri.Row) []string {
	set := map[string]struct{}{}
	for _, row := range rows {
		for col := range row {
			set[col] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for col := range set {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
