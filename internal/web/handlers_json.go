package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	results, err := s.journal.ListSignalResults(r.Context(), listLimit(r))
	if err != nil {
		s.logger.Error("Failed to list signals", zap.Error(err))
		http.Error(w, "Failed to list signals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleListBacktests(w http.ResponseWriter, r *http.Request) {
	runs, err := s.journal.ListBacktestRuns(r.Context(), listLimit(r))
	if err != nil {
		s.logger.Error("Failed to list backtests", zap.Error(err))
		http.Error(w, "Failed to list backtests", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
