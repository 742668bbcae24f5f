package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var filenamePattern = regexp.MustCompile(`[^a-zA-ZÀ-ÿ\s]`)

// RawArchiver writes raw API responses as indented JSON files, one per stop.
// Filenames keep letters and spaces from the stop name, lower-cased.
type RawArchiver struct {
	dir string
}

// NewRawArchiver creates an archiver writing under dir.
func NewRawArchiver(dir string) *RawArchiver {
	return &RawArchiver{dir: dir}
}

// Write stores one raw response. A body that fails to indent is written
// as-is.
func (a *RawArchiver) Write(stopName string, body []byte) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create raw directory %s: %w", a.dir, err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "    "); err != nil {
		buf.Reset()
		buf.Write(body)
	}

	name := cleanFilename(stopName) + ".json"
	return os.WriteFile(filepath.Join(a.dir, name), buf.Bytes(), 0o644)
}

func cleanFilename(stopName string) string {
	return filenamePattern.ReplaceAllString(strings.ToLower(stopName), "")
}
