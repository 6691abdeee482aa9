package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ratiowatch/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *pgxpool.Pool
}

var _ domain.AlertStore = (*AlertStore)(nil)

// NewAlertStore creates an AlertStore backed by the given pool.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

const alertSelectCols = `id, pair_name, ratio, change_percentage, threshold, timestamp`

func scanAlertRows(rows pgx.Rows) ([]domain.AlertRecord, error) {
	var records []domain.AlertRecord
	for rows.Next() {
		var r domain.AlertRecord
		if err := rows.Scan(
			&r.ID, &r.PairName, &r.Ratio, &r.ChangePct, &r.Threshold, &r.Timestamp,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Insert stores one alert. Re-inserting the same alert ID is a no-op.
func (s *AlertStore) Insert(ctx context.Context, a domain.RatioAlert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alerts (id, pair_name, ratio, change_percentage, threshold, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		a.ID.String(), a.PairName, a.Ratio, a.ChangePct, a.Threshold, a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert alert: %w", err)
	}
	return nil
}

// ListRecent returns the newest alerts, newest first. An empty pairName
// matches every pair.
func (s *AlertStore) ListRecent(ctx context.Context, pairName string, limit int) ([]domain.AlertRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if pairName == "" {
		rows, err = s.pool.Query(ctx, `
			SELECT `+alertSelectCols+`
			FROM alerts
			ORDER BY timestamp DESC
			LIMIT $1`,
			limit,
		)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+alertSelectCols+`
			FROM alerts
			WHERE pair_name = $1
			ORDER BY timestamp DESC
			LIMIT $2`,
			pairName, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: list alerts: %w", err)
	}
	defer rows.Close()

	records, err := scanAlertRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan alerts: %w", err)
	}
	return records, nil
}

// ListBefore returns up to limit alerts older than cutoff, oldest first.
func (s *AlertStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.AlertRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+alertSelectCols+`
		FROM alerts
		WHERE timestamp < $1
		ORDER BY timestamp ASC
		LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list alerts before: %w", err)
	}
	defer rows.Close()
	return scanAlertRows(rows)
}

// DeleteBefore removes alerts older than cutoff and returns the count.
func (s *AlertStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM alerts WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete alerts before: %w", err)
	}
	return tag.RowsAffected(), nil
}
