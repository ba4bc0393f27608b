package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/pdfqa/internal/store"
)

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.run == nil {
		jsonError(w, "no run in progress", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.run.Snapshot())
}

// handlePairs serves the result set as last saved to disk.
func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		jsonError(w, "no output configured", http.StatusNotFound)
		return
	}
	elems, err := s.store.Load()
	if err != nil {
		s.log.Error().Err(err).Str("path", s.store.Path()).Msg("load result set failed")
		jsonError(w, "failed to read result set", http.StatusInternalServerError)
		return
	}
	data, err := store.Encode(elems)
	if err != nil {
		jsonError(w, "failed to encode result set", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
