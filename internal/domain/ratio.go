package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SimpleRatio is a spot exchange ratio between two symbols computed from
// their last traded prices.
type SimpleRatio struct {
	PairName  string    `json:"pair_name"`
	SymbolA   string    `json:"symbol_a"`
	SymbolB   string    `json:"symbol_b"`
	PriceA    float64   `json:"price_a"`
	PriceB    float64   `json:"price_b"`
	Ratio     float64   `json:"ratio"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary renders the ratio as a one-line human-readable string.
func (r SimpleRatio) Summary() string {
	return fmt.Sprintf("%s: %.8f (%s=$%.2f / %s=$%.2f)",
		r.PairName, r.Ratio, r.SymbolA, r.PriceA, r.SymbolB, r.PriceB)
}

// VolumeRatio is an exchange ratio between the depth-weighted effective
// prices of two symbols for a given trade volume.
type VolumeRatio struct {
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

func (r VolumeRatio) Summary() string {
	return fmt.Sprintf("%s: %.8f [Vol: %v]\n  %s eff=$%.2f (slippage: %.3f%%)\n  %s eff=$%.2f (slippage: %.3f%%)",
		r.PairName, r.Ratio, r.Volume,
		r.SymbolA, r.EffectivePriceA, r.SlippageA,
		r.SymbolB, r.EffectivePriceB, r.SlippageB)
}

// SlippageReport describes the expected execution quality of a single taker
// order against the current order book.
type SlippageReport struct {
	Symbol         string    `json:"symbol"`
	MidPrice       float64   `json:"mid_price"`
	Volume         float64   `json:"volume"`
	Side           OrderSide `json:"side"`
	EffectivePrice float64   `json:"effective_price"`
	SlippagePct    float64   `json:"slippage_pct"`
	DepthConsumed  int       `json:"depth_consumed"`
	TotalCost      float64   `json:"total_cost"`
}

func (r SlippageReport) Summary() string {
	return fmt.Sprintf("%s %s %.4f units:\n  Mid: $%.2f -> Effective: $%.2f\n  Slippage: %.3f%%\n  Depth consumed: %d levels\n  Total cost: $%.2f",
		r.Symbol, r.Side, r.Volume, r.MidPrice, r.EffectivePrice,
		r.SlippagePct, r.DepthConsumed, r.TotalCost)
}

// RatioAlert is emitted when a pair's ratio change over the configured
// window breaches a threshold.
type RatioAlert struct {
	ID        uuid.UUID `json:"id"`
	PairName  string    `json:"pair_name"`
	Ratio     float64   `json:"ratio"`
	ChangePct float64   `json:"change_pct"`
	Threshold float64   `json:"threshold"`
	Window    string    `json:"window"`
	Timestamp time.Time `json:"timestamp"`
}

// PairStats aggregates a pair's persisted snapshots over a trailing window.
type PairStats struct {
	PairName string  `json:"pair_name"`
	Count    int64   `json:"count"`
	MinRatio float64 `json:"min_ratio"`
	MaxRatio float64 `json:"max_ratio"`
	AvgRatio float64 `json:"avg_ratio"`
	Hours    int     `json:"hours"`
}

func (s PairStats) Summary() string {
	rangePct := 0.0
	if s.MinRatio != 0 {
		rangePct = (s.MaxRatio - s.MinRatio) / s.MinRatio * 100
	}
	return fmt.Sprintf("%s (last %d hours):\n  Samples: %d\n  Min: %.8f\n  Max: %.8f\n  Avg: %.8f\n  Range: %.2f%%",
		s.PairName, s.Hours, s.Count, s.MinRatio, s.MaxRatio, s.AvgRatio, rangePct)
}
