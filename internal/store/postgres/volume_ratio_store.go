package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ratiowatch/internal/domain"
)

// VolumeRatioStore implements domain.VolumeRatioStore using PostgreSQL.
type VolumeRatioStore struct {
	pool *pgxpool.Pool
}

var _ domain.VolumeRatioStore = (*VolumeRatioStore)(nil)

// NewVolumeRatioStore creates a VolumeRatioStore backed by the given pool.
func NewVolumeRatioStore(pool *pgxpool.Pool) *VolumeRatioStore {
	return &VolumeRatioStore{pool: pool}
}

// Insert stores one volume-based ratio calculation and returns its row ID.
func (s *VolumeRatioStore) Insert(ctx context.Context, r domain.VolumeRatio) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO volume_ratios (pair_name, symbol_a, symbol_b, volume,
			effective_price_a, effective_price_b, ratio,
			slippage_a, slippage_b, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		r.PairName, r.SymbolA, r.SymbolB, r.Volume,
		r.EffectivePriceA, r.EffectivePriceB, r.Ratio,
		r.SlippageA, r.SlippageB, r.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert volume ratio: %w", err)
	}
	return id, nil
}

// ListRecent returns the newest volume ratios for a pair, newest first.
func (s *VolumeRatioStore) ListRecent(ctx context.Context, pairName string, limit int) ([]domain.VolumeRatioRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, pair_name, symbol_a, symbol_b, volume,
			effective_price_a, effective_price_b, ratio,
			slippage_a, slippage_b, timestamp
		FROM volume_ratios
		WHERE pair_name = $1
		ORDER BY timestamp DESC
		LIMIT $2`,
		pairName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list volume ratios: %w", err)
	}
	defer rows.Close()

	var records []domain.VolumeRatioRecord
	for rows.Next() {
		var r domain.VolumeRatioRecord
		if err := rows.Scan(
			&r.ID, &r.PairName, &r.SymbolA, &r.SymbolB, &r.Volume,
			&r.EffectivePriceA, &r.EffectivePriceB, &r.Ratio,
			&r.SlippageA, &r.SlippageB, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan volume ratio: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: scan volume ratios: %w", err)
	}
	return records, nil
}
