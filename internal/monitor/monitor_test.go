package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ratiowatch/internal/domain"
)

type settableSource struct {
	ratios map[string]float64
	errs   map[string]error
	clock  *fakeClock
}

func (s *settableSource) Simple(_ context.Context, pairName, symbolA, symbolB string) (domain.SimpleRatio, error) {
	if err := s.errs[pairName]; err != nil {
		return domain.SimpleRatio{}, err
	}
	return domain.SimpleRatio{
		PairName:  pairName,
		SymbolA:   symbolA,
		SymbolB:   symbolB,
		Ratio:     s.ratios[pairName],
		Timestamp: s.clock.now(),
	}, nil
}

type recordingAlerter struct {
	sends    []string // title + "\n" + message
	sendErr  error
	probeErr error
}

func (a *recordingAlerter) Send(_ context.Context, title, message string) error {
	a.sends = append(a.sends, title+"\n"+message)
	return a.sendErr
}

func (a *recordingAlerter) Probe(context.Context) error { return a.probeErr }

type fakeClock struct {
	cur time.Time
}

func (c *fakeClock) now() time.Time          { return c.cur }
func (c *fakeClock) advance(d time.Duration) { c.cur = c.cur.Add(d) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestMonitor wires a monitor around fakes with a controllable clock.
func newTestMonitor(pairs []Pair, opts Options) (*Monitor, *settableSource, *recordingAlerter, *fakeClock) {
	clock := &fakeClock{cur: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	source := &settableSource{
		ratios: make(map[string]float64),
		errs:   make(map[string]error),
		clock:  clock,
	}
	alerter := &recordingAlerter{}
	opts.Pairs = pairs

	m := New(opts, source, alerter, nil, nil, testLogger())
	m.now = clock.now
	m.state = NewState(clock.now())
	return m, source, alerter, clock
}

func alertCount(a *recordingAlerter) int {
	n := 0
	for _, s := range a.sends {
		if strings.Contains(s, "Ratio Alert") {
			n++
		}
	}
	return n
}

func TestThresholdAlerting(t *testing.T) {
	pair := Pair{Name: "BTC/ETH", SymbolA: "BTCUSDT", SymbolB: "ETHUSDT"}
	opts := Options{
		CheckInterval: time.Minute,
		PeriodicEvery: time.Hour,
		Thresholds:    []float64{5, 10},
		ChangeWindow:  5 * time.Minute,
	}

	t.Run("breach fires only the crossed thresholds", func(t *testing.T) {
		m, source, alerter, clock := newTestMonitor([]Pair{pair}, opts)

		source.ratios[pair.Name] = 1.000
		m.tick(context.Background())
		if got := alertCount(alerter); got != 0 {
			t.Fatalf("alerts after baseline tick = %d, want 0", got)
		}

		clock.advance(time.Minute)
		source.ratios[pair.Name] = 1.060
		m.tick(context.Background())

		if got := alertCount(alerter); got != 1 {
			t.Fatalf("alerts after 6%% move = %d, want 1", got)
		}
		if !strings.Contains(alerter.sends[len(alerter.sends)-1], "+6.00%") {
			t.Errorf("alert body missing change: %q", alerter.sends[len(alerter.sends)-1])
		}
	})

	t.Run("triggered threshold does not re-alert", func(t *testing.T) {
		m, source, alerter, clock := newTestMonitor([]Pair{pair}, opts)

		source.ratios[pair.Name] = 1.000
		m.tick(context.Background())
		clock.advance(time.Minute)
		source.ratios[pair.Name] = 1.060
		m.tick(context.Background())
		clock.advance(time.Minute)
		m.tick(context.Background())
		clock.advance(time.Minute)
		m.tick(context.Background())

		if got := alertCount(alerter); got != 1 {
			t.Errorf("alerts = %d, want 1 (debounced)", got)
		}
	})

	t.Run("larger move fires the higher threshold once", func(t *testing.T) {
		m, source, alerter, clock := newTestMonitor([]Pair{pair}, opts)

		source.ratios[pair.Name] = 1.000
		m.tick(context.Background())
		clock.advance(time.Minute)
		source.ratios[pair.Name] = 1.060
		m.tick(context.Background())
		clock.advance(time.Minute)
		source.ratios[pair.Name] = 1.120
		m.tick(context.Background())

		// 5% fired on the first move, 10% on the second.
		if got := alertCount(alerter); got != 2 {
			t.Errorf("alerts = %d, want 2", got)
		}
	})

	t.Run("delivery failure still debounces", func(t *testing.T) {
		m, source, alerter, clock := newTestMonitor([]Pair{pair}, opts)
		alerter.sendErr = errors.New("channel down")

		source.ratios[pair.Name] = 1.000
		m.tick(context.Background())
		clock.advance(time.Minute)
		source.ratios[pair.Name] = 1.060
		m.tick(context.Background())
		clock.advance(time.Minute)
		m.tick(context.Background())

		if got := alertCount(alerter); got != 1 {
			t.Errorf("send attempts = %d, want 1 (no retry after failed delivery)", got)
		}
	})

	t.Run("failing pair is skipped without stopping others", func(t *testing.T) {
		other := Pair{Name: "SOL/ETH", SymbolA: "SOLUSDT", SymbolB: "ETHUSDT"}
		m, source, alerter, clock := newTestMonitor([]Pair{pair, other}, opts)

		source.errs[pair.Name] = errors.New("binance 5xx")
		source.ratios[other.Name] = 1.000
		m.tick(context.Background())
		clock.advance(time.Minute)
		source.ratios[other.Name] = 1.100
		m.tick(context.Background())

		if got := alertCount(alerter); got != 1 {
			t.Errorf("alerts = %d, want 1 from the healthy pair", got)
		}
	})
}

func TestPeriodicDigest(t *testing.T) {
	pairA := Pair{Name: "BTC/ETH", SymbolA: "BTCUSDT", SymbolB: "ETHUSDT"}
	pairB := Pair{Name: "SOL/ETH", SymbolA: "SOLUSDT", SymbolB: "ETHUSDT"}
	opts := Options{
		CheckInterval: time.Minute,
		PeriodicEvery: 10 * time.Minute,
		Thresholds:    []float64{5},
		ChangeWindow:  5 * time.Minute,
	}

	digests := func(a *recordingAlerter) []string {
		var out []string
		for _, s := range a.sends {
			if strings.Contains(s, "Periodic Ratio Update") {
				out = append(out, s)
			}
		}
		return out
	}

	t.Run("fires after the period and resets debounce", func(t *testing.T) {
		m, source, alerter, clock := newTestMonitor([]Pair{pairA}, opts)

		source.ratios[pairA.Name] = 1.000
		m.tick(context.Background())
		clock.advance(time.Minute)
		source.ratios[pairA.Name] = 1.060
		m.tick(context.Background())
		if got := alertCount(alerter); got != 1 {
			t.Fatalf("alerts before digest = %d, want 1", got)
		}

		clock.advance(10 * time.Minute)
		m.tick(context.Background())
		if got := len(digests(alerter)); got != 1 {
			t.Fatalf("digests = %d, want 1", got)
		}

		// Ratio still 6% above the (pruned) window baseline would not
		// re-alert on its own, so force a fresh move after the reset.
		clock.advance(time.Minute)
		source.ratios[pairA.Name] = 1.150
		m.tick(context.Background())
		if got := alertCount(alerter); got != 2 {
			t.Errorf("alerts after reset = %d, want 2 (threshold re-armed)", got)
		}
	})

	t.Run("omits failed pairs", func(t *testing.T) {
		m, source, alerter, clock := newTestMonitor([]Pair{pairA, pairB}, opts)

		source.ratios[pairA.Name] = 1.000
		source.errs[pairB.Name] = errors.New("binance 5xx")
		clock.advance(10 * time.Minute)
		m.tick(context.Background())

		got := digests(alerter)
		if len(got) != 1 {
			t.Fatalf("digests = %d, want 1", len(got))
		}
		if strings.Contains(got[0], pairB.Name) {
			t.Errorf("digest mentions failed pair: %q", got[0])
		}
		if !strings.Contains(got[0], pairA.Name) {
			t.Errorf("digest missing healthy pair: %q", got[0])
		}
	})

	t.Run("suppressed when every pair fails, but still advances", func(t *testing.T) {
		m, source, alerter, clock := newTestMonitor([]Pair{pairA}, opts)

		source.errs[pairA.Name] = errors.New("binance 5xx")
		clock.advance(10 * time.Minute)
		m.tick(context.Background())
		if got := len(digests(alerter)); got != 0 {
			t.Fatalf("digests = %d, want 0", got)
		}

		// Next tick is inside a fresh period, so nothing fires even after
		// the pair recovers.
		delete(source.errs, pairA.Name)
		source.ratios[pairA.Name] = 1.000
		clock.advance(time.Minute)
		m.tick(context.Background())
		if got := len(digests(alerter)); got != 0 {
			t.Errorf("digests = %d, want 0 (fire time advanced on failure)", got)
		}
	})
}

func TestRunFailsWhenProbeFails(t *testing.T) {
	m, _, alerter, _ := newTestMonitor([]Pair{{Name: "BTC/ETH"}}, Options{
		CheckInterval: time.Minute,
		PeriodicEvery: time.Hour,
		ChangeWindow:  5 * time.Minute,
	})
	alerter.probeErr = errors.New("bad token")

	err := m.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "notification probe") {
		t.Errorf("Run error = %v, want probe failure", err)
	}
}
