package monitor

import (
	"testing"
	"time"
)

func TestStateBaseline(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	t.Run("empty history has no baseline", func(t *testing.T) {
		s := NewState(t0)
		if _, ok := s.Baseline("BTC/ETH", t0, window); ok {
			t.Error("expected no baseline for empty history")
		}
	})

	t.Run("oldest snapshot inside the window wins", func(t *testing.T) {
		s := NewState(t0)
		now := t0.Add(6 * time.Minute)
		s.Record("BTC/ETH", 1.0, t0, now, window)                    // outside window
		s.Record("BTC/ETH", 1.1, t0.Add(2*time.Minute), now, window) // inside
		s.Record("BTC/ETH", 1.2, t0.Add(4*time.Minute), now, window) // inside

		got, ok := s.Baseline("BTC/ETH", now, window)
		if !ok || got != 1.1 {
			t.Errorf("baseline = %v/%v, want 1.1/true", got, ok)
		}
	})

	t.Run("falls back to oldest retained snapshot", func(t *testing.T) {
		s := NewState(t0)
		now := t0.Add(8 * time.Minute)
		// Both older than the window but inside the 2x retention horizon.
		s.Record("BTC/ETH", 1.0, t0, now, window)
		s.Record("BTC/ETH", 1.1, t0.Add(time.Minute), now, window)

		got, ok := s.Baseline("BTC/ETH", now, window)
		if !ok || got != 1.0 {
			t.Errorf("baseline = %v/%v, want 1.0/true", got, ok)
		}
	})
}

func TestStatePrune(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	s := NewState(t0)
	s.Record("BTC/ETH", 1.0, t0, t0, window)

	// Recording 11 minutes later puts the first entry past 2x the window.
	now := t0.Add(11 * time.Minute)
	s.Record("BTC/ETH", 2.0, now, now, window)

	got, ok := s.Baseline("BTC/ETH", now, window)
	if !ok || got != 2.0 {
		t.Errorf("baseline = %v/%v, want 2.0/true (old entry pruned)", got, ok)
	}
}

func TestStateDebounce(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewState(t0)

	if s.Triggered("BTC/ETH", 5) {
		t.Error("fresh state should have no triggered thresholds")
	}

	s.MarkTriggered("BTC/ETH", 5)
	if !s.Triggered("BTC/ETH", 5) {
		t.Error("threshold not marked")
	}
	if s.Triggered("BTC/ETH", 10) {
		t.Error("unrelated threshold marked")
	}
	if s.Triggered("SOL/ETH", 5) {
		t.Error("unrelated pair marked")
	}

	s.ResetTriggered()
	if s.Triggered("BTC/ETH", 5) {
		t.Error("reset did not re-arm the threshold")
	}
}

func TestStatePeriodic(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	period := 10 * time.Minute

	s := NewState(t0)
	if s.PeriodicDue(t0.Add(9*time.Minute), period) {
		t.Error("due before the period elapsed")
	}
	if !s.PeriodicDue(t0.Add(10*time.Minute), period) {
		t.Error("not due exactly at the period")
	}

	s.MarkPeriodic(t0.Add(10 * time.Minute))
	if s.PeriodicDue(t0.Add(12*time.Minute), period) {
		t.Error("due again right after firing")
	}
}
