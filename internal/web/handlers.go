package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vitos/reversal_bot/internal/domain"
	"github.com/vitos/reversal_bot/internal/usecase"
	"go.uber.org/zap"
)

const maxSignalBytes = 4 << 10

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSignalBytes))
	if err != nil {
		s.logger.Warn("Rejected webhook body", zap.Error(err))
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"status": string(domain.StatusError),
			"msg":    err.Error(),
		})
		return
	}

	res := s.signals.HandleSignal(r.Context(), string(body))

	code := http.StatusOK
	if res.Status == domain.StatusError {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	days := s.backtestDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be an integer"})
			return
		}
		days = n
	}

	res, err := s.backtests.Run(r.Context(), days)
	if err != nil {
		s.logger.Error("Backtest failed", zap.Int("days", days), zap.Error(err))
		code := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrInvalidWindow) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
