package referential

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Referential column names in the IDFM open-data export.
const (
	columnID   = "arrid"
	columnName = "arrname"
	columnTown = "arrtown"
)

// Load reads the stop referential from a local file path or an http(s) URL.
// The source is a JSON array of objects keyed arrid/arrname/arrtown; id
// values may arrive as strings or numbers and are coerced to strings. Any
// load failure is fatal to the run, before selection begins.
func Load(source string) (*Catalog, error) {
	data, err := readSource(source)
	if err != nil {
		return nil, fmt.Errorf("read referential %s: %w", source, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse referential %s: %w", source, err)
	}

	stops := make([]StopPoint, 0, len(records))
	for _, rec := range records {
		stops = append(stops, StopPoint{
			ID:   toString(rec[columnID]),
			Name: toString(rec[columnName]),
			Town: toString(rec[columnTown]),
		})
	}
	return NewCatalog(stops), nil
}

func readSource(source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	resp, err := http.Get(source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, source)
	}

	return io.ReadAll(resp.Body)
}

// toString coerces referential cell values; the export is inconsistent about
// numeric ids.
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
