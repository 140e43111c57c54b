// Package service drives the periodic snapshot refresh and exposes the
// latest display-ready state to callers.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"reliquaryScope/internal/model"
	"reliquaryScope/internal/valuation"
)

// SnapshotReader is the aggregation surface the service drives.
type SnapshotReader interface {
	ReadProtocol(ctx context.Context) (*model.ReliquaryData, error)
	ReadUser(ctx context.Context, user common.Address, pools []model.PoolData) (*model.UserData, error)
	ReadAllRelics(ctx context.Context) ([]model.RelicData, error)
}

// Session supplies the active network and the connected account, injected
// so the service behaves identically however they are provided.
type Session interface {
	ChainID() uint64
	Account() (common.Address, bool)
}

// StaticSession is a Session with fixed values, for CLI use.
type StaticSession struct {
	Chain uint64
	User  common.Address
}

func (s StaticSession) ChainID() uint64 { return s.Chain }

func (s StaticSession) Account() (common.Address, bool) {
	return s.User, s.User != (common.Address{})
}

// MetricsWriter persists per-pool valuation samples after a refresh.
type MetricsWriter interface {
	WritePoolMetrics(ctx context.Context, samples []model.PoolMetrics) error
}

// State is the read surface handed to presentation callers.
type State struct {
	Snapshot  *valuation.Snapshot
	IsLoading bool
	Err       error
}

// Service maintains the current snapshot. Refresh results that arrive after
// a newer refresh has started are discarded, never letting stale data
// overwrite fresher state.
type Service struct {
	reader   SnapshotReader
	session  Session
	chainID  uint64
	interval time.Duration
	sinks    []MetricsWriter
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	generation uint64
	snapshot   *valuation.Snapshot
	lastRaw    *model.ReliquaryData
	lastUser   *model.UserData
	lastErr    error
	loading    bool

	allRelics  []model.RelicData
	allLoading bool
	allLoaded  bool
}

// Options configures a Service.
type Options struct {
	Reader   SnapshotReader
	Session  Session
	ChainID  uint64
	Interval time.Duration
	Sinks    []MetricsWriter
	Metrics  *Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// New builds a Service. Interval defaults to 30s, Now to time.Now.
func New(opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		reader:   opts.Reader,
		session:  opts.Session,
		chainID:  opts.ChainID,
		interval: opts.Interval,
		sinks:    opts.Sinks,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// State returns the latest snapshot, whether a refresh is in flight, and
// the last refresh error. A failed refresh never clears a previously
// successful snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Snapshot: s.snapshot, IsLoading: s.loading, Err: s.lastErr}
}

// Refresh performs one full fetch-and-transform cycle.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	started := s.now()
	raw, user, err := s.fetch(ctx)
	elapsed := s.now().Sub(started).Seconds()
	s.metrics.observeRefresh(elapsed, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		if s.metrics != nil {
			s.metrics.StaleDiscards.Inc()
		}
		s.logger.Debug("discarding superseded refresh", zap.Uint64("generation", gen))
		return nil
	}
	s.loading = false

	if err != nil {
		s.lastErr = err
		s.logger.Warn("refresh failed", zap.Error(err))
		return err
	}

	s.lastErr = nil
	s.lastRaw = raw
	s.lastUser = user
	s.rebuildLocked()
	s.logger.Info("snapshot refreshed",
		zap.Int("pools", len(raw.Pools)),
		zap.Float64("tvl_usd", s.snapshot.TVLUSD),
		zap.Duration("took", s.now().Sub(started)))

	s.persist(ctx, s.snapshot)
	return nil
}

func (s *Service) fetch(ctx context.Context) (*model.ReliquaryData, *model.UserData, error) {
	raw, err := s.reader.ReadProtocol(ctx)
	if err != nil {
		return nil, nil, err
	}

	var user *model.UserData
	if account, ok := s.session.Account(); ok {
		user, err = s.reader.ReadUser(ctx, account, raw.Pools)
		if err != nil {
			return nil, nil, err
		}
	}
	return raw, user, nil
}

// rebuildLocked re-runs the valuation transform over the cached raw data.
// Caller holds s.mu.
func (s *Service) rebuildLocked() {
	snapshot := valuation.BuildSnapshot(s.lastRaw, s.chainID, s.lastUser, s.allRelics, s.now())
	snapshot.AllRelicsLoading = s.allLoading
	snapshot.AllRelicsLoaded = s.allLoaded
	s.snapshot = snapshot
	s.metrics.observeSnapshot(snapshot.TVLUSD, len(snapshot.Pools))
}

// LoadAllRelics runs the one-shot global enumeration. Idempotent once
// loaded; concurrent calls while one is in flight are no-ops.
func (s *Service) LoadAllRelics(ctx context.Context) error {
	s.mu.Lock()
	if s.allLoaded || s.allLoading {
		s.mu.Unlock()
		return nil
	}
	s.allLoading = true
	if s.lastRaw != nil {
		s.rebuildLocked()
	}
	s.mu.Unlock()

	relics, err := s.reader.ReadAllRelics(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.allLoading = false
	if err != nil {
		if s.lastRaw != nil {
			s.rebuildLocked()
		}
		s.logger.Warn("global relic enumeration failed", zap.Error(err))
		return err
	}

	s.allRelics = relics
	s.allLoaded = true
	if s.metrics != nil {
		s.metrics.RelicsRead.Set(float64(len(relics)))
	}
	if s.lastRaw != nil {
		s.rebuildLocked()
	}
	s.logger.Info("global relics loaded", zap.Int("count", len(relics)))
	return nil
}

// Run refreshes on a fixed cadence until ctx is cancelled. Ticks are
// skipped before the first successful snapshot and while the session's
// network does not match the deployment network; the first fetch must be
// triggered explicitly via Refresh.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !s.shouldRefresh() {
				continue
			}
			if err := s.Refresh(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (s *Service) shouldRefresh() bool {
	if s.session.ChainID() != s.chainID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot != nil
}

// persist forwards per-pool samples to the configured sinks. Sink failures
// are logged, never surfaced to refresh callers.
func (s *Service) persist(ctx context.Context, snapshot *valuation.Snapshot) {
	if len(s.sinks) == 0 || snapshot == nil {
		return
	}
	takenAt := s.now().Unix()
	samples := make([]model.PoolMetrics, 0, len(snapshot.Pools))
	for _, pool := range snapshot.Pools {
		samples = append(samples, model.PoolMetrics{
			ChainID:    s.chainID,
			PoolIndex:  pool.Index,
			Token:      pool.Token.Hex(),
			ShortName:  pool.ShortName,
			TVLUSD:     pool.TVLUSD,
			AverageAPR: pool.AverageAPR,
			AllocShare: pool.AllocShare,
			TakenAt:    takenAt,
		})
	}
	for _, sink := range s.sinks {
		if err := sink.WritePoolMetrics(ctx, samples); err != nil {
			s.logger.Warn("pool metrics sink failed", zap.Error(err))
		}
	}
}
