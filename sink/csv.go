package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/siri"
)

// CSVSink appends rows to a CSV file, creating the header on first write.
// When a batch brings columns the header lacks, the whole file is rewritten
// with the widened header and prior rows padded; new columns append after the
// existing ones in sorted order.
type CSVSink struct {
	path   string
	header []string
	loaded bool
}

// NewCSVSink creates a CSV sink for the given path. The file is created
// lazily on the first append.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the output file path.
func (s *CSVSink) Path() string { return s.path }

// Close is a no-op; every append leaves the file closed.
func (s *CSVSink) Close() error { return nil }

// Append writes rows aligned to the header, widening it first if needed.
func (s *CSVSink) Append(rows []siri.Row) error {
	if len(rows) == 0 {
		return nil
	}

	if !s.loaded {
		if _, err := s.readRecords(); err != nil {
			return err
		}
		s.loaded = true
	}

	incoming := columnUnion(rows)

	if s.header == nil {
		s.header = incoming
		if err := s.writeAll(nil); err != nil {
			return err
		}
	} else if added := s.missingColumns(incoming); len(added) > 0 {
		existing, err := s.readRecords()
		if err != nil {
			return err
		}
		s.header = append(s.header, added...)
		if err := s.writeAll(existing); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	for _, row := range rows {
		record := make([]string, len(s.header))
		for i, col := range s.header {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// readRecords returns the existing data rows and refreshes the cached header.
// A missing file yields no records and a nil header.
func (s *CSVSink) readRecords() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	s.header = all[0]
	return all[1:], nil
}

func (s *CSVSink) missingColumns(incoming []string) []string {
	existing := make(map[string]struct{}, len(s.header))
	for _, col := range s.header {
		existing[col] = struct{}{}
	}
	var added []string
	for _, col := range incoming {
		if _, ok := existing[col]; !ok {
			added = append(added, col)
		}
	}
	return added
}

// writeAll rewrites the file with the current header and the given data rows
// padded to the header width.
func (s *CSVSink) writeAll(records [][]string) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(s.header); err != nil {
		return err
	}
	for _, rec := range records {
		padded := make([]string, len(s.header))
		copy(padded, rec)
		if err := w.Write(padded); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
