package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"ratiowatch/internal/domain"
	"ratiowatch/internal/notify"
)

// Pair is one monitored symbol pair.
type Pair struct {
	Name    string
	SymbolA string
	SymbolB string
}

// RatioSource computes the current simple ratio for a pair.
type RatioSource interface {
	Simple(ctx context.Context, pairName, symbolA, symbolB string) (domain.SimpleRatio, error)
}

// Alerter delivers alert and digest notifications.
type Alerter interface {
	Send(ctx context.Context, title, message string) error
	Probe(ctx context.Context) error
}

// Options configures the monitoring loop.
type Options struct {
	Pairs         []Pair
	CheckInterval time.Duration
	PeriodicEvery time.Duration
	Thresholds    []float64
	ChangeWindow  time.Duration
}

// Monitor drives the check loop. All state lives in the loop goroutine; the
// struct holds no locks and must not be used from multiple goroutines.
type Monitor struct {
	opts      Options
	source    RatioSource
	alerter   Alerter
	snapshots domain.SnapshotStore // optional
	alerts    domain.AlertStore    // optional
	state     *State
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Monitor. snapshots and alerts may be nil, in which case
// observations and alerts are kept in memory only.
func New(opts Options, source RatioSource, alerter Alerter, snapshots domain.SnapshotStore, alerts domain.AlertStore, logger *slog.Logger) *Monitor {
	return &Monitor{
		opts:      opts,
		source:    source,
		alerter:   alerter,
		snapshots: snapshots,
		alerts:    alerts,
		state:     NewState(time.Now()),
		logger:    logger.With(slog.String("component", "monitor")),
		now:       time.Now,
	}
}

// Run probes the notification channels, performs an immediate check, then
// checks on every interval tick until the context is cancelled. A failed
// probe is fatal; everything after it is logged and survived.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "starting ratio monitor",
		slog.Int("pairs", len(m.opts.Pairs)),
		slog.Duration("check_interval", m.opts.CheckInterval),
	)

	if err := m.alerter.Probe(ctx); err != nil {
		return fmt.Errorf("monitor: notification probe: %w", err)
	}

	m.state = NewState(m.now())
	m.tick(ctx)

	ticker := time.NewTicker(m.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one full pass: every pair, then the periodic digest check.
func (m *Monitor) tick(ctx context.Context) {
	for _, pair := range m.opts.Pairs {
		if err := m.checkPair(ctx, pair); err != nil {
			m.logger.ErrorContext(ctx, "pair check failed",
				slog.String("pair", pair.Name),
				slog.String("error", err.Error()),
			)
		}
	}
	m.checkPeriodic(ctx)
}

func (m *Monitor) checkPair(ctx context.Context, pair Pair) error {
	r, err := m.source.Simple(ctx, pair.Name, pair.SymbolA, pair.SymbolB)
	if err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "checked pair",
		slog.String("pair", pair.Name),
		slog.Float64("ratio", r.Ratio),
	)

	m.state.Record(pair.Name, r.Ratio, r.Timestamp, m.now(), m.opts.ChangeWindow)

	if m.snapshots != nil {
		if _, err := m.snapshots.Insert(ctx, r); err != nil {
			m.logger.ErrorContext(ctx, "snapshot insert failed",
				slog.String("pair", pair.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	m.checkThresholds(ctx, pair.Name, r)
	return nil
}

// checkThresholds compares the current ratio against the window baseline and
// alerts once per threshold per debounce cycle. The threshold is marked
// triggered even when delivery fails so a flaky channel cannot cause a storm
// of duplicates.
func (m *Monitor) checkThresholds(ctx context.Context, pairName string, current domain.SimpleRatio) {
	baseline, ok := m.state.Baseline(pairName, m.now(), m.opts.ChangeWindow)
	if !ok || baseline == 0 {
		return
	}

	changePct := (current.Ratio - baseline) / baseline * 100
	absChange := math.Abs(changePct)

	for _, threshold := range m.opts.Thresholds {
		if absChange < threshold || m.state.Triggered(pairName, threshold) {
			continue
		}

		m.logger.InfoContext(ctx, "threshold breach",
			slog.String("pair", pairName),
			slog.Float64("change_pct", changePct),
			slog.Float64("threshold", threshold),
		)

		alert := domain.RatioAlert{
			ID:        uuid.New(),
			PairName:  pairName,
			Ratio:     current.Ratio,
			ChangePct: changePct,
			Threshold: threshold,
			Window:    notify.FormatWindow(int(m.opts.ChangeWindow.Seconds())),
			Timestamp: m.now().UTC(),
		}

		if m.alerts != nil {
			if err := m.alerts.Insert(ctx, alert); err != nil {
				m.logger.ErrorContext(ctx, "alert insert failed",
					slog.String("pair", pairName),
					slog.String("error", err.Error()),
				)
			}
		}

		title, message := notify.FormatAlert(alert)
		if err := m.alerter.Send(ctx, title, message); err != nil {
			m.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("pair", pairName),
				slog.String("error", err.Error()),
			)
		}

		m.state.MarkTriggered(pairName, threshold)
	}
}

// checkPeriodic sends the digest when the period has elapsed. The fire time
// advances and the debounce state resets regardless of how many pairs
// computed or whether delivery succeeded.
func (m *Monitor) checkPeriodic(ctx context.Context) {
	now := m.now()
	if !m.state.PeriodicDue(now, m.opts.PeriodicEvery) {
		return
	}

	m.logger.InfoContext(ctx, "sending periodic digest")

	ratios := make([]domain.SimpleRatio, 0, len(m.opts.Pairs))
	for _, pair := range m.opts.Pairs {
		r, err := m.source.Simple(ctx, pair.Name, pair.SymbolA, pair.SymbolB)
		if err != nil {
			m.logger.ErrorContext(ctx, "digest ratio failed",
				slog.String("pair", pair.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		ratios = append(ratios, r)
	}

	if len(ratios) > 0 {
		title, message := notify.FormatDigest(ratios, now)
		if err := m.alerter.Send(ctx, title, message); err != nil {
			m.logger.ErrorContext(ctx, "digest delivery failed",
				slog.String("error", err.Error()),
			)
		}
	}

	m.state.MarkPeriodic(now)
	m.state.ResetTriggered()
}
