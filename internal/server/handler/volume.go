package handler

import (
	"context"
	"log/slog"
	"net/http"

	"ratiowatch/internal/domain"
)

// VolumeRatioQueryStore defines the queries the volume-ratio handler requires.
type VolumeRatioQueryStore interface {
	ListRecent(ctx context.Context, pairName string, limit int) ([]domain.VolumeRatioRecord, error)
}

// VolumeRatiosHandler serves persisted volume-based ratio calculations.
type VolumeRatiosHandler struct {
	ratios VolumeRatioQueryStore
	logger *slog.Logger
}

// NewVolumeRatiosHandler creates a VolumeRatiosHandler backed by the given store.
func NewVolumeRatiosHandler(ratios VolumeRatioQueryStore, logger *slog.Logger) *VolumeRatiosHandler {
	return &VolumeRatiosHandler{ratios: ratios, logger: logger}
}

// listVolumeRatiosResponse wraps the volume-ratio list response.
type listVolumeRatiosResponse struct {
	Pair   string                     `json:"pair"`
	Ratios []domain.VolumeRatioRecord `json:"ratios"`
}

// ListVolumeRatios returns the newest volume-based calculations for a pair,
// newest first.
// GET /api/volume-ratios/{pair}?limit=50
func (h *VolumeRatiosHandler) ListVolumeRatios(w http.ResponseWriter, r *http.Request) {
	pair := r.PathValue("pair")
	if pair == "" {
		writeError(w, http.StatusBadRequest, "missing pair name")
		return
	}
	limit := parseLimit(r, 50, 500)

	records, err := h.ratios.ListRecent(r.Context(), pair, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list volume ratios failed",
			slog.String("pair", pair),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list volume ratios")
		return
	}
	if records == nil {
		records = []domain.VolumeRatioRecord{}
	}

	writeJSON(w, http.StatusOK, listVolumeRatiosResponse{Pair: pair, Ratios: records})
}
