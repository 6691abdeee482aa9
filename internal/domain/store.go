package domain

import (
	"context"
	"time"
)

// RatioRecord is a persisted ratio snapshot row.
type RatioRecord struct {
	ID        int64     `json:"id"`
	PairName  string    `json:"pair_name"`
	SymbolA   string    `json:"symbol_a"`
	SymbolB   string    `json:"symbol_b"`
	PriceA    float64   `json:"price_a"`
	PriceB    float64   `json:"price_b"`
	Ratio     float64   `json:"ratio"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertRecord is a persisted threshold alert row.
type AlertRecord struct {
	ID        string    `json:"id"`
	PairName  string    `json:"pair_name"`
	Ratio     float64   `json:"ratio"`
	ChangePct float64   `json:"change_pct"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// VolumeRatioRecord is a persisted volume-based ratio row.
type VolumeRatioRecord struct {
	ID              int64     `json:"id"`
	PairName        string    `json:"pair_name"`
	SymbolA         string    `json:"symbol_a"`
	SymbolB         string    `json:"symbol_b"`
	Volume          float64   `json:"volume"`
	EffectivePriceA float64   `json:"effective_price_a"`
	EffectivePriceB float64   `json:"effective_price_b"`
	Ratio           float64   `json:"ratio"`
	SlippageA       float64   `json:"slippage_a"`
	SlippageB       float64   `json:"slippage_b"`
	Timestamp       time.Time `json:"timestamp"`
}

// SnapshotStore persists ratio snapshots.
type SnapshotStore interface {
	Insert(ctx context.Context, r SimpleRatio) (int64, error)
	ListRecent(ctx context.Context, pairName string, limit int) ([]RatioRecord, error)
	ListRange(ctx context.Context, pairName string, from, to time.Time) ([]RatioRecord, error)
	Stats(ctx context.Context, pairName string, hours int) (PairStats, error)
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]RatioRecord, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertStore persists threshold alerts. An empty pairName on ListRecent
// returns alerts for every pair.
type AlertStore interface {
	Insert(ctx context.Context, a RatioAlert) error
	ListRecent(ctx context.Context, pairName string, limit int) ([]AlertRecord, error)
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]AlertRecord, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// VolumeRatioStore persists volume-based ratio calculations.
type VolumeRatioStore interface {
	Insert(ctx context.Context, r VolumeRatio) (int64, error)
	ListRecent(ctx context.Context, pairName string, limit int) ([]VolumeRatioRecord, error)
}
