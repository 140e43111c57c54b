package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes the refresh loop. All metrics are optional; a nil
// *Metrics disables collection.
type Metrics struct {
	RefreshTotal   prometheus.Counter
	RefreshErrors  prometheus.Counter
	RefreshSeconds prometheus.Histogram
	ProtocolTVLUSD prometheus.Gauge
	PoolCount      prometheus.Gauge
	RelicsRead     prometheus.Gauge
	StaleDiscards  prometheus.Counter
}

// NewMetrics registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RefreshTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reliquary_refresh_total",
			Help: "Snapshot refresh attempts.",
		}),
		RefreshErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "reliquary_refresh_errors_total",
			Help: "Snapshot refreshes that failed.",
		}),
		RefreshSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reliquary_refresh_duration_seconds",
			Help:    "Wall time of a full snapshot refresh.",
			Buckets: prometheus.DefBuckets,
		}),
		ProtocolTVLUSD: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reliquary_protocol_tvl_usd",
			Help: "Protocol-wide TVL from the latest snapshot.",
		}),
		PoolCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reliquary_pool_count",
			Help: "Registered pools in the latest snapshot.",
		}),
		RelicsRead: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reliquary_relics_read",
			Help: "Relics returned by the latest global enumeration.",
		}),
		StaleDiscards: factory.NewCounter(prometheus.CounterOpts{
			Name: "reliquary_stale_refresh_discards_total",
			Help: "Refresh results discarded because a newer refresh started.",
		}),
	}
}

func (m *Metrics) observeRefresh(seconds float64, err error) {
	if m == nil {
		return
	}
	m.RefreshTotal.Inc()
	m.RefreshSeconds.Observe(seconds)
	if err != nil {
		m.RefreshErrors.Inc()
	}
}

func (m *Metrics) observeSnapshot(tvlUSD float64, pools int) {
	if m == nil {
		return
	}
	m.ProtocolTVLUSD.Set(tvlUSD)
	m.PoolCount.Set(float64(pools))
}
