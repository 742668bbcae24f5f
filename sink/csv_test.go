package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/siri"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVSink_CreatesHeaderOnFirstWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	err := s.Append([]siri.Row{
		{"lineref": "C01742", "stoppointname": "Gare de Lyon"},
	})
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"lineref", "stoppointname"}, records[0])
	assert.Equal(t, []string{"C01742", "Gare de Lyon"}, records[1])
}

func TestCSVSink_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	first := NewCSVSink(path)
	require.NoError(t, first.Append([]siri.Row{{"lineref": "A"}}))

	// A fresh sink instance picks up the existing header, as across runs.
	second := NewCSVSink(path)
	require.NoError(t, second.Append([]siri.Row{{"lineref": "B"}}))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"A"}, records[1])
	assert.Equal(t, []string{"B"}, records[2])
}

func TestCSVSink_WidensSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	require.NoError(t, s.Append([]siri.Row{{"lineref": "A"}}))
	require.NoError(t, s.Append([]siri.Row{
		{"lineref": "B", "destinationname": "Melun", "order": "1"},
	}))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	// New columns append after existing ones in sorted order.
	assert.Equal(t, []string{"lineref", "destinationname", "order"}, records[0])
	// The prior row is padded.
	assert.Equal(t, []string{"A", "", ""}, records[1])
	assert.Equal(t, []string{"B", "Melun", "1"}, records[2])
}

func TestCSVSink_MissingFieldsPadded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	require.NoError(t, s.Append([]siri.Row{
		{"a": "1", "b": "2"},
		{"a": "3"},
	}))

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"3", ""}, records[2])
}

func TestCSVSink_EmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	s := NewCSVSink(path)

	require.NoError(t, s.Append(nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
