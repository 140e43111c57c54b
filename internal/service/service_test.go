package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliquaryScope/internal/model"
)

type fakeSnapshotReader struct {
	mu            sync.Mutex
	protocolCalls int
	allCalls      int
	protocolErr   error
	allErr        error
	gate          chan struct{}
	relics        []model.RelicData
}

func (f *fakeSnapshotReader) ReadProtocol(context.Context) (*model.ReliquaryData, error) {
	f.mu.Lock()
	f.protocolCalls++
	n := f.protocolCalls
	gate := f.gate
	err := f.protocolErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &model.ReliquaryData{
		RewardToken:     model.RewardTokenData{Decimals: 18, Balance: big.NewInt(0)},
		EmissionRate:    big.NewInt(0),
		TotalAllocPoint: uint64(n),
	}, nil
}

func (f *fakeSnapshotReader) ReadUser(context.Context, common.Address, []model.PoolData) (*model.UserData, error) {
	return &model.UserData{}, nil
}

func (f *fakeSnapshotReader) ReadAllRelics(context.Context) ([]model.RelicData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	return f.relics, f.allErr
}

func newTestService(reader *fakeSnapshotReader) *Service {
	return New(Options{
		Reader:  reader,
		Session: StaticSession{Chain: 10},
		ChainID: 10,
	})
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	reader := &fakeSnapshotReader{}
	svc := newTestService(reader)

	require.Nil(t, svc.State().Snapshot)
	require.NoError(t, svc.Refresh(context.Background()))

	state := svc.State()
	require.NotNil(t, state.Snapshot)
	assert.NoError(t, state.Err)
	assert.False(t, state.IsLoading)
	assert.Equal(t, uint64(1), state.Snapshot.TotalAllocPoint)
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	reader := &fakeSnapshotReader{}
	svc := newTestService(reader)

	require.NoError(t, svc.Refresh(context.Background()))
	first := svc.State().Snapshot

	reader.mu.Lock()
	reader.protocolErr = errors.New("provider down")
	reader.mu.Unlock()

	require.Error(t, svc.Refresh(context.Background()))

	state := svc.State()
	assert.Error(t, state.Err)
	assert.Same(t, first, state.Snapshot)
}

func TestSupersededRefreshIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	reader := &fakeSnapshotReader{gate: gate}
	svc := newTestService(reader)

	// First refresh blocks inside the reader.
	done := make(chan error, 1)
	go func() { done <- svc.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return reader.protocolCalls == 1
	}, time.Second, time.Millisecond)

	// Second refresh starts and completes while the first is in flight.
	reader.mu.Lock()
	reader.gate = nil
	reader.mu.Unlock()
	require.NoError(t, svc.Refresh(context.Background()))
	require.Equal(t, uint64(2), svc.State().Snapshot.TotalAllocPoint)

	// The first refresh lands late; its result must not overwrite the
	// fresher snapshot.
	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, uint64(2), svc.State().Snapshot.TotalAllocPoint)
}

func TestLoadAllRelicsIsIdempotentOnceLoaded(t *testing.T) {
	reader := &fakeSnapshotReader{relics: []model.RelicData{{
		ID:            1,
		Amount:        big.NewInt(1),
		PendingReward: big.NewInt(0),
	}}}
	svc := newTestService(reader)

	require.NoError(t, svc.Refresh(context.Background()))
	require.NoError(t, svc.LoadAllRelics(context.Background()))
	require.NoError(t, svc.LoadAllRelics(context.Background()))

	reader.mu.Lock()
	calls := reader.allCalls
	reader.mu.Unlock()
	assert.Equal(t, 1, calls)

	state := svc.State()
	assert.True(t, state.Snapshot.AllRelicsLoaded)
	assert.False(t, state.Snapshot.AllRelicsLoading)
	assert.Len(t, state.Snapshot.AllRelics, 1)
}

func TestLoadAllRelicsFailureAllowsRetry(t *testing.T) {
	reader := &fakeSnapshotReader{allErr: errors.New("throttled")}
	svc := newTestService(reader)

	require.NoError(t, svc.Refresh(context.Background()))
	require.Error(t, svc.LoadAllRelics(context.Background()))
	assert.False(t, svc.State().Snapshot.AllRelicsLoaded)

	reader.mu.Lock()
	reader.allErr = nil
	reader.mu.Unlock()
	require.NoError(t, svc.LoadAllRelics(context.Background()))
	assert.True(t, svc.State().Snapshot.AllRelicsLoaded)
}

type recordingSink struct {
	mu      sync.Mutex
	batches [][]model.PoolMetrics
}

func (r *recordingSink) WritePoolMetrics(_ context.Context, samples []model.PoolMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, samples)
	return nil
}

func TestRefreshForwardsPoolMetricsToSinks(t *testing.T) {
	reader := &fakeSnapshotReader{}
	sink := &recordingSink{}
	svc := New(Options{
		Reader:  reader,
		Session: StaticSession{Chain: 10},
		ChainID: 10,
		Sinks:   []MetricsWriter{sink},
	})

	require.NoError(t, svc.Refresh(context.Background()))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.batches, 1)
}
