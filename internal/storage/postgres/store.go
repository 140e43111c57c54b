// Package postgres persists pool metrics samples to Postgres.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reliquaryScope/internal/model"
)

// Store provides Postgres persistence for pool metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the pool_metrics table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pool_metrics (
			chain_id BIGINT NOT NULL,
			pool_index INT NOT NULL,
			token TEXT NOT NULL,
			short_name TEXT NOT NULL,
			tvl_usd DOUBLE PRECISION NOT NULL,
			average_apr DOUBLE PRECISION NOT NULL,
			alloc_share DOUBLE PRECISION NOT NULL,
			taken_at BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (chain_id, pool_index, taken_at)
		)
	`)
	return err
}

// WritePoolMetrics inserts or updates one refresh cycle's samples.
func (s *Store) WritePoolMetrics(ctx context.Context, samples []model.PoolMetrics) error {
	if len(samples) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sample := range samples {
		batch.Queue(`
			INSERT INTO pool_metrics (
				chain_id, pool_index, token, short_name, tvl_usd, average_apr, alloc_share, taken_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (chain_id, pool_index, taken_at)
			DO UPDATE SET
				token = EXCLUDED.token,
				short_name = EXCLUDED.short_name,
				tvl_usd = EXCLUDED.tvl_usd,
				average_apr = EXCLUDED.average_apr,
				alloc_share = EXCLUDED.alloc_share
		`,
			int64(sample.ChainID),
			sample.PoolIndex,
			sample.Token,
			sample.ShortName,
			sample.TVLUSD,
			sample.AverageAPR,
			sample.AllocShare,
			sample.TakenAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range samples {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
