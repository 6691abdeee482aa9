// Package monitor runs the ratio monitoring loop: periodic checks, threshold
// alerts with debounce, and the scheduled digest.
package monitor

import "time"

// snapshot is one observed ratio for a pair.
type snapshot struct {
	ratio float64
	ts    time.Time
}

// State holds the per-pair observation history, the set of thresholds that
// already alerted, and the last digest fire time. It is owned by the loop
// goroutine and must not be shared.
type State struct {
	history      map[string][]snapshot
	triggered    map[string]map[float64]bool
	lastPeriodic time.Time
}

func NewState(now time.Time) *State {
	return &State{
		history:      make(map[string][]snapshot),
		triggered:    make(map[string]map[float64]bool),
		lastPeriodic: now,
	}
}

// Record appends an observation and drops entries older than twice the
// change window. The extra retention keeps a baseline available right after
// the window boundary passes.
func (s *State) Record(pair string, ratio float64, ts, now time.Time, window time.Duration) {
	entries := append(s.history[pair], snapshot{ratio: ratio, ts: ts})

	cutoff := now.Add(-2 * window)
	kept := entries[:0]
	for _, e := range entries {
		if e.ts.After(cutoff) {
			kept = append(kept, e)
		}
	}
	s.history[pair] = kept
}

// Baseline returns the comparison point for change detection: the oldest
// retained snapshot inside the window, falling back to the oldest retained
// snapshot overall. ok is false when the pair has no history.
func (s *State) Baseline(pair string, now time.Time, window time.Duration) (ratio float64, ok bool) {
	entries := s.history[pair]
	if len(entries) == 0 {
		return 0, false
	}

	windowStart := now.Add(-window)
	for _, e := range entries {
		if !e.ts.Before(windowStart) {
			return e.ratio, true
		}
	}
	return entries[0].ratio, true
}

// Triggered reports whether the threshold has already alerted for the pair
// since the last reset.
func (s *State) Triggered(pair string, threshold float64) bool {
	return s.triggered[pair][threshold]
}

// MarkTriggered records that the threshold alerted for the pair.
func (s *State) MarkTriggered(pair string, threshold float64) {
	set, ok := s.triggered[pair]
	if !ok {
		set = make(map[float64]bool)
		s.triggered[pair] = set
	}
	set[threshold] = true
}

// ResetTriggered re-arms every threshold for every pair. Called when the
// periodic digest fires.
func (s *State) ResetTriggered() {
	s.triggered = make(map[string]map[float64]bool)
}

// PeriodicDue reports whether the digest period has elapsed.
func (s *State) PeriodicDue(now time.Time, period time.Duration) bool {
	return now.Sub(s.lastPeriodic) >= period
}

// MarkPeriodic advances the digest fire time.
func (s *State) MarkPeriodic(now time.Time) {
	s.lastPeriodic = now
}
