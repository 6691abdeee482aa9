package handler

import (
	"context"
	"log/slog"
	"net/http"

	"ratiowatch/internal/domain"
)

// HistoryStore defines the snapshot queries the history handler requires.
type HistoryStore interface {
	ListRecent(ctx context.Context, pairName string, limit int) ([]domain.RatioRecord, error)
}

// HistoryHandler serves persisted ratio snapshots.
type HistoryHandler struct {
	snapshots HistoryStore
	logger    *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler backed by the given store.
func NewHistoryHandler(snapshots HistoryStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{snapshots: snapshots, logger: logger}
}

// listHistoryResponse wraps the history list response.
type listHistoryResponse struct {
	Pair    string               `json:"pair"`
	History []domain.RatioRecord `json:"history"`
}

// History returns the newest snapshots for a pair, newest first.
// GET /api/history/{pair}?limit=100
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	pair := r.PathValue("pair")
	if pair == "" {
		writeError(w, http.StatusBadRequest, "missing pair name")
		return
	}
	limit := parseLimit(r, 100, 1000)

	records, err := h.snapshots.ListRecent(r.Context(), pair, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list history failed",
			slog.String("pair", pair),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if records == nil {
		records = []domain.RatioRecord{}
	}

	writeJSON(w, http.StatusOK, listHistoryResponse{Pair: pair, History: records})
}
