package depth

import (
	"errors"
	"math"
	"testing"

	"ratiowatch/internal/domain"
)

func levels(pairs ...float64) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.PriceLevel{Price: pairs[i], Quantity: pairs[i+1]})
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExecute(t *testing.T) {
	t.Run("walks multiple levels", func(t *testing.T) {
		asks := levels(100, 1, 101, 2)

		exec, err := Execute("BTCUSDT", domain.SideBuy, asks, 2)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !almostEqual(exec.EffectivePrice, 100.5) {
			t.Errorf("effective price = %v, want 100.5", exec.EffectivePrice)
		}
		if !almostEqual(exec.SlippagePct, 0.5) {
			t.Errorf("slippage = %v, want 0.5", exec.SlippagePct)
		}
		if !almostEqual(exec.TotalCost, 201) {
			t.Errorf("total cost = %v, want 201", exec.TotalCost)
		}
		if exec.LevelsTouched != 2 {
			t.Errorf("levels touched = %d, want 2", exec.LevelsTouched)
		}
	})

	t.Run("single level exact fill", func(t *testing.T) {
		asks := levels(100, 3)

		exec, err := Execute("BTCUSDT", domain.SideBuy, asks, 3)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !almostEqual(exec.EffectivePrice, 100) {
			t.Errorf("effective price = %v, want 100", exec.EffectivePrice)
		}
		if exec.SlippagePct != 0 {
			t.Errorf("slippage = %v, want 0", exec.SlippagePct)
		}
	})

	t.Run("insufficient liquidity reports availability", func(t *testing.T) {
		asks := levels(100, 1, 101, 1)

		_, err := Execute("ETHUSDT", domain.SideBuy, asks, 5)
		var insufficient *domain.InsufficientLiquidityError
		if !errors.As(err, &insufficient) {
			t.Fatalf("Execute error = %v, want InsufficientLiquidityError", err)
		}
		if insufficient.Requested != 5 || insufficient.Available != 2 {
			t.Errorf("requested/available = %v/%v, want 5/2",
				insufficient.Requested, insufficient.Available)
		}
		if insufficient.Symbol != "ETHUSDT" || insufficient.Side != domain.SideBuy {
			t.Errorf("symbol/side = %s/%s", insufficient.Symbol, insufficient.Side)
		}
	})

	t.Run("empty book is insufficient", func(t *testing.T) {
		_, err := Execute("BTCUSDT", domain.SideSell, nil, 1)
		var insufficient *domain.InsufficientLiquidityError
		if !errors.As(err, &insufficient) {
			t.Fatalf("Execute error = %v, want InsufficientLiquidityError", err)
		}
		if insufficient.Available != 0 {
			t.Errorf("available = %v, want 0", insufficient.Available)
		}
	})

	t.Run("zero volume returns best price", func(t *testing.T) {
		asks := levels(100, 1, 101, 2)

		exec, err := Execute("BTCUSDT", domain.SideBuy, asks, 0)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if exec.EffectivePrice != 100 {
			t.Errorf("effective price = %v, want 100", exec.EffectivePrice)
		}
		if exec.SlippagePct != 0 || exec.LevelsTouched != 0 {
			t.Errorf("slippage/levels = %v/%d, want 0/0", exec.SlippagePct, exec.LevelsTouched)
		}
	})

	t.Run("effective price is monotonic in volume", func(t *testing.T) {
		asks := levels(100, 1, 101, 1, 103, 5, 110, 10)

		prev := 0.0
		for _, v := range []float64{0.5, 1, 1.5, 2, 4, 10} {
			exec, err := Execute("BTCUSDT", domain.SideBuy, asks, v)
			if err != nil {
				t.Fatalf("Execute(%v): %v", v, err)
			}
			if exec.EffectivePrice < prev {
				t.Errorf("effective price decreased at volume %v: %v < %v",
					v, exec.EffectivePrice, prev)
			}
			prev = exec.EffectivePrice
		}
	})

	t.Run("sell walks bids best first", func(t *testing.T) {
		bids := levels(99, 1, 98, 2)

		exec, err := Execute("BTCUSDT", domain.SideSell, bids, 2)
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		// 1@99 + 1@98 = 197 over 2 units
		if !almostEqual(exec.EffectivePrice, 98.5) {
			t.Errorf("effective price = %v, want 98.5", exec.EffectivePrice)
		}
		// |(98.5-99)/99| * 100
		want := math.Abs((98.5-99)/99) * 100
		if !almostEqual(exec.SlippagePct, want) {
			t.Errorf("slippage = %v, want %v", exec.SlippagePct, want)
		}
	})
}

func TestLevelsConsumed(t *testing.T) {
	t.Run("counts levels until volume covered", func(t *testing.T) {
		asks := levels(100, 1, 101, 2, 102, 3)
		if got := LevelsConsumed(asks, 2.5); got != 2 {
			t.Errorf("LevelsConsumed = %d, want 2", got)
		}
	})

	t.Run("zero volume consumes nothing", func(t *testing.T) {
		asks := levels(100, 1)
		if got := LevelsConsumed(asks, 0); got != 0 {
			t.Errorf("LevelsConsumed = %d, want 0", got)
		}
	})

	t.Run("volume past the book counts every level", func(t *testing.T) {
		asks := levels(100, 1, 101, 1)
		if got := LevelsConsumed(asks, 50); got != 2 {
			t.Errorf("LevelsConsumed = %d, want 2", got)
		}
	})
}
