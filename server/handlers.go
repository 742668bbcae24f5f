package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/monitoring"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
)

type healthResponse struct {
	Status     string `json:"status"`
	StopPoints int    `json:"stop_points"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:     "ok",
		StopPoints: s.catalog.Load().Len(),
	})
}

// handleStopMonitoring runs the retrieval workflow for the towns query
// parameter. Each request builds a fresh service so the fetch memo is scoped
// to the request.
func (s *Server) handleStopMonitoring(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	towns := config.SplitTowns(r.URL.Query().Get("towns"))
	svc := monitoring.NewService(s.cfg, s.catalog.Load(), s.log)

	result, err := svc.Retrieve(r.Context(), towns)
	switch {
	case errors.Is(err, monitoring.ErrNoTowns):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, referential.ErrEmptySelection):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		_ = json.NewEncoder(w).Encode(result)
	}
}

// handleArtifact serves the current output artifact.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	path := s.artifactPath()
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "no artifact produced yet")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) artifactPath() string {
	ext := ".csv"
	if s.cfg.Output.Format == "sqlite" {
		ext = ".db"
	}
	return filepath.Join(s.cfg.Output.Directory, s.cfg.Output.BaseName+ext)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
