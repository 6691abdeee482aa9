package monitor

import (
	"context"
	"log/slog"
	"time"

	"ratiowatch/internal/domain"
)

// Archiver writes aged rows to long-term storage before they are deleted.
type Archiver interface {
	ArchiveSnapshots(ctx context.Context, recs []domain.RatioRecord) error
	ArchiveAlerts(ctx context.Context, recs []domain.AlertRecord) error
}

// archiveBatch caps the rows pulled per archive round trip.
const archiveBatch = 5000

// Retention removes persisted rows older than the configured age, archiving
// them first when an Archiver is present. Failures are logged and retried on
// the next cycle; retention never takes the monitor down.
type Retention struct {
	snapshots domain.SnapshotStore
	alerts    domain.AlertStore
	archiver  Archiver // optional
	days      int
	logger    *slog.Logger
	now       func() time.Time
}

func NewRetention(snapshots domain.SnapshotStore, alerts domain.AlertStore, archiver Archiver, days int, logger *slog.Logger) *Retention {
	return &Retention{
		snapshots: snapshots,
		alerts:    alerts,
		archiver:  archiver,
		days:      days,
		logger:    logger.With(slog.String("component", "retention")),
		now:       time.Now,
	}
}

// Run performs one cleanup immediately and then once per day until the
// context is cancelled.
func (r *Retention) Run(ctx context.Context) error {
	r.runOnce(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Retention) runOnce(ctx context.Context) {
	cutoff := r.now().AddDate(0, 0, -r.days)
	snapCutoff, alertCutoff := cutoff, cutoff

	if r.archiver != nil {
		var err error
		snapCutoff, alertCutoff, err = r.archive(ctx, cutoff)
		if err != nil {
			r.logger.ErrorContext(ctx, "archive failed, skipping delete",
				slog.String("error", err.Error()),
			)
			return
		}
	}

	deletedSnapshots, err := r.snapshots.DeleteBefore(ctx, snapCutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "snapshot cleanup failed", slog.String("error", err.Error()))
		return
	}
	deletedAlerts, err := r.alerts.DeleteBefore(ctx, alertCutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "alert cleanup failed", slog.String("error", err.Error()))
		return
	}

	r.logger.InfoContext(ctx, "retention cycle complete",
		slog.Int64("snapshots_deleted", deletedSnapshots),
		slog.Int64("alerts_deleted", deletedAlerts),
		slog.Int("days", r.days),
	)
}

// archive writes one batch per table per cycle and returns, per table, the
// timestamp up to which rows are safe to delete. A full batch means more
// aged rows remain, so that table's delete is capped at the batch edge; the
// rest stay in place for the next daily run. Never delete rows that were
// not archived.
func (r *Retention) archive(ctx context.Context, cutoff time.Time) (snapCutoff, alertCutoff time.Time, err error) {
	snapCutoff, alertCutoff = cutoff, cutoff

	snaps, err := r.snapshots.ListBefore(ctx, cutoff, archiveBatch)
	if err != nil {
		return snapCutoff, alertCutoff, err
	}
	if len(snaps) > 0 {
		if err := r.archiver.ArchiveSnapshots(ctx, snaps); err != nil {
			return snapCutoff, alertCutoff, err
		}
	}
	if len(snaps) == archiveBatch {
		snapCutoff = snaps[len(snaps)-1].Timestamp
	}

	alerts, err := r.alerts.ListBefore(ctx, cutoff, archiveBatch)
	if err != nil {
		return snapCutoff, alertCutoff, err
	}
	if len(alerts) > 0 {
		if err := r.archiver.ArchiveAlerts(ctx, alerts); err != nil {
			return snapCutoff, alertCutoff, err
		}
	}
	if len(alerts) == archiveBatch {
		alertCutoff = alerts[len(alerts)-1].Timestamp
	}

	return snapCutoff, alertCutoff, nil
}
