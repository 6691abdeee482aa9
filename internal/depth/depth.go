// Package depth computes depth-weighted execution prices over order-book
// levels. It is pure: no I/O, no clock, no shared state.
package depth

import "ratiowatch/internal/domain"

// Execution is the result of walking a book side with a taker order.
type Execution struct {
	EffectivePrice float64
	SlippagePct    float64
	TotalCost      float64
	FilledVolume   float64
	LevelsTouched  int
}

// Execute walks levels from the best price, filling min(remaining, qty) at
// each level, and returns the volume-weighted effective price and the
// slippage relative to the best level.
//
// Volume 0 against a non-empty book returns the best level's price with zero
// slippage and zero levels touched. If the book cannot absorb the full
// volume the result is an InsufficientLiquidityError carrying the requested
// and available quantity; no partial result is ever returned. The error is
// raised only after the whole slice has been scanned.
func Execute(symbol string, side domain.OrderSide, levels []domain.PriceLevel, volume float64) (Execution, error) {
	if len(levels) == 0 {
		return Execution{}, &domain.InsufficientLiquidityError{
			Symbol:    symbol,
			Side:      side,
			Requested: volume,
			Available: 0,
		}
	}

	remaining := volume
	var totalCost, filled float64
	var touched int

	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		fillQty := min(remaining, lvl.Quantity)
		totalCost += fillQty * lvl.Price
		filled += fillQty
		remaining -= fillQty
		touched++
	}

	if filled < volume {
		return Execution{}, &domain.InsufficientLiquidityError{
			Symbol:    symbol,
			Side:      side,
			Requested: volume,
			Available: filled,
		}
	}

	best := levels[0].Price
	if volume == 0 {
		return Execution{EffectivePrice: best}, nil
	}

	eff := totalCost / filled
	slippage := abs((eff-best)/best) * 100

	return Execution{
		EffectivePrice: eff,
		SlippagePct:    slippage,
		TotalCost:      totalCost,
		FilledVolume:   filled,
		LevelsTouched:  touched,
	}, nil
}

// LevelsConsumed counts how many levels a fill of the given volume reaches.
// Remaining volume is decremented by each level's full listed quantity, so
// the count can exceed the levels a real fill would touch when a level is
// only partially consumed. Kept as the reporting figure for slippage
// analysis.
func LevelsConsumed(levels []domain.PriceLevel, volume float64) int {
	remaining := volume
	count := 0
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		remaining -= lvl.Quantity
		count++
	}
	return count
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
