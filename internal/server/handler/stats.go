package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"ratiowatch/internal/domain"
)

// StatsStore defines the aggregate query the stats handler requires.
type StatsStore interface {
	Stats(ctx context.Context, pairName string, hours int) (domain.PairStats, error)
}

// StatsHandler serves aggregate ratio statistics.
type StatsHandler struct {
	snapshots StatsStore
	logger    *slog.Logger
}

// NewStatsHandler creates a StatsHandler backed by the given store.
func NewStatsHandler(snapshots StatsStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{snapshots: snapshots, logger: logger}
}

// Stats returns min/max/avg ratio aggregates for a pair over a trailing
// window of hours (default 24, max 720).
// GET /api/stats/{pair}?hours=24
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	pair := r.PathValue("pair")
	if pair == "" {
		writeError(w, http.StatusBadRequest, "missing pair name")
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}
	if hours > 720 {
		hours = 720
	}

	stats, err := h.snapshots.Stats(r.Context(), pair, hours)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: stats failed",
			slog.String("pair", pair),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
