package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/internal/logger"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/monitoring"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
)

const visitPayload = `{
	"Siri": {
		"ServiceDelivery": {
			"StopMonitoringDelivery": [{
				"MonitoredStopVisit": [{
					"RecordedAtTime": "2025-01-15T09:59:30Z",
					"MonitoredVehicleJourney": {
						"LineRef": {"value": "STIF:Line::C01742:"},
						"FramedVehicleJourneyRef": {"DataFrameRef": {"value": "any"}},
						"TrainNumbers": {"TrainNumberRef": [{"value": "125640"}]},
						"MonitoredCall": {
							"StopPointName": [{"value": "Test"}],
							"ExpectedArrivalTime": "2025-01-15T10:05:00Z"
						}
					}
				}]
			}]
		}
	}
}`

func serverFixture(t *testing.T, apiEndpoint string) *Server {
	t.Helper()
	cfg := &config.AppConfig{
		API:       config.APIConfig{Endpoint: apiEndpoint, Key: "test-key", TimeoutSeconds: 5},
		Retrieval: config.RetrievalConfig{MaxWorkers: 2},
		Output: config.OutputConfig{
			Directory: t.TempDir(),
			BaseName:  "stop_monitoring",
			Format:    "csv",
		},
		Server: config.ServerConfig{Port: 16181},
	}
	catalog := referential.NewCatalog([]referential.StopPoint{
		{ID: "1", Name: "Gare de Lyon", Town: "Paris"},
		{ID: "2", Name: "Chatelet", Town: "Paris"},
	})
	return New(cfg, catalog, logger.New("error"))
}

func TestHandleHealth(t *testing.T) {
	s := serverFixture(t, "http://unused.example")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(2), resp["stop_points"])
}

func TestHandleStopMonitoring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(visitPayload))
	}))
	defer upstream.Close()

	s := serverFixture(t, upstream.URL)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stop-monitoring?towns=Paris", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result monitoring.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, monitoring.StatusSuccess, result.Status)
	assert.Equal(t, 2, result.TotalProcessed)
}

func TestHandleStopMonitoring_Errors(t *testing.T) {
	s := serverFixture(t, "http://unused.example")

	tests := []struct {
		name   string
		method string
		target string
		status int
	}{
		{
			name:   "missing towns",
			method: http.MethodPost,
			target: "/api/stop-monitoring",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown town",
			method: http.MethodPost,
			target: "/api/stop-monitoring?towns=Nowhereville",
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "wrong method",
			method: http.MethodGet,
			target: "/api/stop-monitoring?towns=Paris",
			status: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleArtifact(t *testing.T) {
	s := serverFixture(t, "http://unused.example")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stop-monitoring/artifact", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(s.artifactPath(), []byte("lineref\nA\n"), 0o644))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stop-monitoring/artifact", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lineref")
}

func TestWatchReferential(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "stop_referential.json")
	require.NoError(t, os.WriteFile(source,
		[]byte(`[{"arrid":"1","arrname":"A","arrtown":"Paris"}]`), 0o644))

	s := serverFixture(t, "http://unused.example")
	s.cfg.Referential.Source = source

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.WatchReferential(ctx))

	require.NoError(t, os.WriteFile(source,
		[]byte(`[{"arrid":"1","arrname":"A","arrtown":"Paris"},{"arrid":"2","arrname":"B","arrtown":"Massy"}]`), 0o644))

	assert.Eventually(t, func() bool {
		return s.catalog.Load().Len() == 2
	}, 2*time.Second, 20*time.Millisecond)
}
