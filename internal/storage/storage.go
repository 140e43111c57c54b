package storage

import (
	"context"

	"reliquaryScope/internal/model"
)

// MetricsSink persists per-pool valuation samples.
type MetricsSink interface {
	WritePoolMetrics(ctx context.Context, samples []model.PoolMetrics) error
}
