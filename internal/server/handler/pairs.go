package handler

import (
	"log/slog"
	"net/http"
)

// PairInfo describes one monitored pair in API responses.
type PairInfo struct {
	Name           string  `json:"name"`
	SymbolA        string  `json:"symbol_a"`
	SymbolB        string  `json:"symbol_b"`
	AnalysisVolume float64 `json:"analysis_volume,omitempty"`
}

// PairsHandler serves the configured pair list.
type PairsHandler struct {
	pairs  []PairInfo
	logger *slog.Logger
}

// NewPairsHandler creates a PairsHandler serving the given pairs.
func NewPairsHandler(pairs []PairInfo, logger *slog.Logger) *PairsHandler {
	return &PairsHandler{pairs: pairs, logger: logger}
}

// ListPairs returns every configured pair.
// GET /api/pairs
func (h *PairsHandler) ListPairs(w http.ResponseWriter, r *http.Request) {
	pairs := h.pairs
	if pairs == nil {
		pairs = []PairInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": pairs})
}
