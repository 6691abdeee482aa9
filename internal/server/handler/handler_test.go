package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ratiowatch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSnapshotQueries struct {
	records []domain.RatioRecord
	stats   domain.PairStats
	err     error

	gotPair  string
	gotLimit int
	gotHours int
}

func (f *fakeSnapshotQueries) ListRecent(ctx context.Context, pairName string, limit int) ([]domain.RatioRecord, error) {
	f.gotPair, f.gotLimit = pairName, limit
	return f.records, f.err
}

func (f *fakeSnapshotQueries) Stats(ctx context.Context, pairName string, hours int) (domain.PairStats, error) {
	f.gotPair, f.gotHours = pairName, hours
	return f.stats, f.err
}

type fakeAlertQueries struct {
	records []domain.AlertRecord
	err     error

	gotPair  string
	gotLimit int
}

func (f *fakeAlertQueries) ListRecent(ctx context.Context, pairName string, limit int) ([]domain.AlertRecord, error) {
	f.gotPair, f.gotLimit = pairName, limit
	return f.records, f.err
}

type fakeVolumeRatioQueries struct {
	records []domain.VolumeRatioRecord
	err     error

	gotPair  string
	gotLimit int
}

func (f *fakeVolumeRatioQueries) ListRecent(ctx context.Context, pairName string, limit int) ([]domain.VolumeRatioRecord, error) {
	f.gotPair, f.gotLimit = pairName, limit
	return f.records, f.err
}

// serve routes the request through a mux so PathValue works.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(discardLogger())

	rec := serve("GET /api/health", h.HealthCheck,
		httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["service"] != "ratiowatch" {
		t.Errorf("service field = %v", body["service"])
	}
	if _, ok := body["uptime"].(string); !ok {
		t.Errorf("uptime field = %v", body["uptime"])
	}
}

func TestListPairs(t *testing.T) {
	h := NewPairsHandler([]PairInfo{
		{Name: "BTC/ETH", SymbolA: "BTCUSDT", SymbolB: "ETHUSDT", AnalysisVolume: 1},
	}, discardLogger())

	rec := serve("GET /api/pairs", h.ListPairs,
		httptest.NewRequest(http.MethodGet, "/api/pairs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Pairs []PairInfo `json:"pairs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Pairs) != 1 || body.Pairs[0].Name != "BTC/ETH" {
		t.Errorf("pairs = %+v", body.Pairs)
	}
}

func TestHistory(t *testing.T) {
	t.Run("returns records", func(t *testing.T) {
		store := &fakeSnapshotQueries{records: []domain.RatioRecord{
			{ID: 1, PairName: "BTC/ETH", Ratio: 16.5, Timestamp: time.Now().UTC()},
		}}
		h := NewHistoryHandler(store, discardLogger())

		rec := serve("GET /api/history/{pair}", h.History,
			httptest.NewRequest(http.MethodGet, "/api/history/BTC%2FETH?limit=10", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if store.gotPair != "BTC/ETH" {
			t.Errorf("pair = %q", store.gotPair)
		}
		if store.gotLimit != 10 {
			t.Errorf("limit = %d", store.gotLimit)
		}
		var body struct {
			Pair    string               `json:"pair"`
			History []domain.RatioRecord `json:"history"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(body.History) != 1 || body.History[0].Ratio != 16.5 {
			t.Errorf("history = %+v", body.History)
		}
	})

	t.Run("clamps limit", func(t *testing.T) {
		store := &fakeSnapshotQueries{}
		h := NewHistoryHandler(store, discardLogger())

		serve("GET /api/history/{pair}", h.History,
			httptest.NewRequest(http.MethodGet, "/api/history/BTC%2FETH?limit=99999", nil))

		if store.gotLimit != 1000 {
			t.Errorf("limit = %d, want 1000", store.gotLimit)
		}
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		store := &fakeSnapshotQueries{err: errors.New("boom")}
		h := NewHistoryHandler(store, discardLogger())

		rec := serve("GET /api/history/{pair}", h.History,
			httptest.NewRequest(http.MethodGet, "/api/history/BTC%2FETH", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		h := NewHistoryHandler(&fakeSnapshotQueries{}, discardLogger())

		rec := serve("GET /api/history/{pair}", h.History,
			httptest.NewRequest(http.MethodGet, "/api/history/BTC%2FETH", nil))

		var body struct {
			History []domain.RatioRecord `json:"history"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.History == nil {
			t.Error("history serialized as null, want []")
		}
	})
}

func TestListAlerts(t *testing.T) {
	t.Run("all pairs by default", func(t *testing.T) {
		store := &fakeAlertQueries{records: []domain.AlertRecord{
			{ID: "a1", PairName: "BTC/ETH", ChangePct: 5.5, Threshold: 5},
		}}
		h := NewAlertsHandler(store, discardLogger())

		rec := serve("GET /api/alerts", h.ListAlerts,
			httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if store.gotPair != "" {
			t.Errorf("pair = %q, want empty", store.gotPair)
		}
		if store.gotLimit != 50 {
			t.Errorf("limit = %d, want default 50", store.gotLimit)
		}
	})

	t.Run("pair filter", func(t *testing.T) {
		store := &fakeAlertQueries{}
		h := NewAlertsHandler(store, discardLogger())

		serve("GET /api/alerts", h.ListAlerts,
			httptest.NewRequest(http.MethodGet, "/api/alerts?pair=BTC/ETH&limit=5", nil))

		if store.gotPair != "BTC/ETH" {
			t.Errorf("pair = %q", store.gotPair)
		}
		if store.gotLimit != 5 {
			t.Errorf("limit = %d", store.gotLimit)
		}
	})
}

func TestStats(t *testing.T) {
	t.Run("default window", func(t *testing.T) {
		store := &fakeSnapshotQueries{stats: domain.PairStats{
			PairName: "BTC/ETH", Count: 12, MinRatio: 16.1, MaxRatio: 16.9, AvgRatio: 16.5, Hours: 24,
		}}
		h := NewStatsHandler(store, discardLogger())

		rec := serve("GET /api/stats/{pair}", h.Stats,
			httptest.NewRequest(http.MethodGet, "/api/stats/BTC%2FETH", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if store.gotHours != 24 {
			t.Errorf("hours = %d, want 24", store.gotHours)
		}
		var stats domain.PairStats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if stats.Count != 12 || stats.AvgRatio != 16.5 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("hours clamp", func(t *testing.T) {
		store := &fakeSnapshotQueries{}
		h := NewStatsHandler(store, discardLogger())

		serve("GET /api/stats/{pair}", h.Stats,
			httptest.NewRequest(http.MethodGet, "/api/stats/BTC%2FETH?hours=10000", nil))

		if store.gotHours != 720 {
			t.Errorf("hours = %d, want 720", store.gotHours)
		}
	})
}

func TestListVolumeRatios(t *testing.T) {
	t.Run("returns records", func(t *testing.T) {
		store := &fakeVolumeRatioQueries{records: []domain.VolumeRatioRecord{
			{ID: 1, PairName: "BTC/ETH", Volume: 100000, Ratio: 16.4, SlippageA: 0.02},
		}}
		h := NewVolumeRatiosHandler(store, discardLogger())

		rec := serve("GET /api/volume-ratios/{pair}", h.ListVolumeRatios,
			httptest.NewRequest(http.MethodGet, "/api/volume-ratios/BTC%2FETH?limit=10", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if store.gotPair != "BTC/ETH" {
			t.Errorf("pair = %q", store.gotPair)
		}
		if store.gotLimit != 10 {
			t.Errorf("limit = %d", store.gotLimit)
		}
		var body struct {
			Pair   string                     `json:"pair"`
			Ratios []domain.VolumeRatioRecord `json:"ratios"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(body.Ratios) != 1 || body.Ratios[0].Ratio != 16.4 {
			t.Errorf("ratios = %+v", body.Ratios)
		}
	})

	t.Run("clamps limit", func(t *testing.T) {
		store := &fakeVolumeRatioQueries{}
		h := NewVolumeRatiosHandler(store, discardLogger())

		serve("GET /api/volume-ratios/{pair}", h.ListVolumeRatios,
			httptest.NewRequest(http.MethodGet, "/api/volume-ratios/BTC%2FETH?limit=99999", nil))

		if store.gotLimit != 500 {
			t.Errorf("limit = %d, want 500", store.gotLimit)
		}
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		store := &fakeVolumeRatioQueries{err: errors.New("boom")}
		h := NewVolumeRatiosHandler(store, discardLogger())

		rec := serve("GET /api/volume-ratios/{pair}", h.ListVolumeRatios,
			httptest.NewRequest(http.MethodGet, "/api/volume-ratios/BTC%2FETH", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		h := NewVolumeRatiosHandler(&fakeVolumeRatioQueries{}, discardLogger())

		rec := serve("GET /api/volume-ratios/{pair}", h.ListVolumeRatios,
			httptest.NewRequest(http.MethodGet, "/api/volume-ratios/BTC%2FETH", nil))

		var body struct {
			Ratios []domain.VolumeRatioRecord `json:"ratios"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if body.Ratios == nil {
			t.Error("ratios serialized as null, want []")
		}
	})
}
