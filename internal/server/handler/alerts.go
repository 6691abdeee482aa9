package handler

import (
	"context"
	"log/slog"
	"net/http"

	"ratiowatch/internal/domain"
)

// AlertQueryStore defines the alert queries the alerts handler requires.
type AlertQueryStore interface {
	ListRecent(ctx context.Context, pairName string, limit int) ([]domain.AlertRecord, error)
}

// AlertsHandler serves persisted threshold alerts.
type AlertsHandler struct {
	alerts AlertQueryStore
	logger *slog.Logger
}

// NewAlertsHandler creates an AlertsHandler backed by the given store.
func NewAlertsHandler(alerts AlertQueryStore, logger *slog.Logger) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, logger: logger}
}

// listAlertsResponse wraps the alert list response.
type listAlertsResponse struct {
	Alerts []domain.AlertRecord `json:"alerts"`
}

// ListAlerts returns the newest alerts, newest first. An optional "pair"
// query parameter restricts the result to one pair.
// GET /api/alerts?pair=BTC/ETH&limit=50
func (h *AlertsHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	pair := r.URL.Query().Get("pair")
	limit := parseLimit(r, 50, 500)

	records, err := h.alerts.ListRecent(r.Context(), pair, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list alerts failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	if records == nil {
		records = []domain.AlertRecord{}
	}

	writeJSON(w, http.StatusOK, listAlertsResponse{Alerts: records})
}
