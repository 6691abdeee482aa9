package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ratiowatch/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

var _ domain.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const snapshotSelectCols = `id, pair_name, symbol_a, symbol_b, price_a, price_b, ratio, timestamp`

func scanSnapshotRows(rows pgx.Rows) ([]domain.RatioRecord, error) {
	var records []domain.RatioRecord
	for rows.Next() {
		var r domain.RatioRecord
		if err := rows.Scan(
			&r.ID, &r.PairName, &r.SymbolA, &r.SymbolB,
			&r.PriceA, &r.PriceB, &r.Ratio, &r.Timestamp,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Insert stores one ratio snapshot and returns its row ID.
func (s *SnapshotStore) Insert(ctx context.Context, r domain.SimpleRatio) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ratio_snapshots (pair_name, symbol_a, symbol_b, price_a, price_b, ratio, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		r.PairName, r.SymbolA, r.SymbolB, r.PriceA, r.PriceB, r.Ratio, r.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert ratio snapshot: %w", err)
	}
	return id, nil
}

// ListRecent returns the newest snapshots for a pair, newest first.
func (s *SnapshotStore) ListRecent(ctx context.Context, pairName string, limit int) ([]domain.RatioRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+snapshotSelectCols+`
		FROM ratio_snapshots
		WHERE pair_name = $1
		ORDER BY timestamp DESC
		LIMIT $2`,
		pairName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ratio snapshots: %w", err)
	}
	defer rows.Close()

	records, err := scanSnapshotRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan ratio snapshots: %w", err)
	}
	return records, nil
}

// ListRange returns snapshots for a pair within [from, to], newest first.
func (s *SnapshotStore) ListRange(ctx context.Context, pairName string, from, to time.Time) ([]domain.RatioRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+snapshotSelectCols+`
		FROM ratio_snapshots
		WHERE pair_name = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp DESC`,
		pairName, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ratio snapshot range: %w", err)
	}
	defer rows.Close()

	records, err := scanSnapshotRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan ratio snapshot range: %w", err)
	}
	return records, nil
}

// Stats aggregates a pair's snapshots over the trailing number of hours.
func (s *SnapshotStore) Stats(ctx context.Context, pairName string, hours int) (domain.PairStats, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var (
		count         int64
		min, max, avg *float64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), MIN(ratio), MAX(ratio), AVG(ratio)
		FROM ratio_snapshots
		WHERE pair_name = $1 AND timestamp >= $2`,
		pairName, since,
	).Scan(&count, &min, &max, &avg)
	if err != nil {
		return domain.PairStats{}, fmt.Errorf("postgres: pair stats: %w", err)
	}

	stats := domain.PairStats{PairName: pairName, Count: count, Hours: hours}
	if min != nil {
		stats.MinRatio = *min
	}
	if max != nil {
		stats.MaxRatio = *max
	}
	if avg != nil {
		stats.AvgRatio = *avg
	}
	return stats, nil
}

// ListBefore returns up to limit snapshots older than cutoff, oldest first.
func (s *SnapshotStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.RatioRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+snapshotSelectCols+`
		FROM ratio_snapshots
		WHERE timestamp < $1
		ORDER BY timestamp ASC
		LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ratio snapshots before: %w", err)
	}
	defer rows.Close()
	return scanSnapshotRows(rows)
}

// DeleteBefore removes snapshots older than cutoff and returns the count.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM ratio_snapshots WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete ratio snapshots before: %w", err)
	}
	return tag.RowsAffected(), nil
}
