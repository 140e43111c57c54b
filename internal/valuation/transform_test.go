package valuation

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliquaryScope/internal/model"
)

var poolToken = common.HexToAddress("0xaaaa")

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func basicSnapshot() *model.ReliquaryData {
	return &model.ReliquaryData{
		Address: common.HexToAddress("0x1111"),
		RewardToken: model.RewardTokenData{
			Address:  common.HexToAddress("0x2222"),
			Symbol:   "OPP",
			Decimals: 18,
			Balance:  big.NewInt(0),
		},
		EmissionRate:        e18(10),
		TotalAllocPoint:     100,
		NativePriceUSD:      0.05,
		RewardTokenPriceUSD: 2,
		Pools: []model.PoolData{{
			Index:         0,
			Token:         poolToken,
			TokenSymbol:   "LP",
			TokenDecimals: 18,
			TokenPriceUSD: 1,
			AllocPoint:    100,
			TotalBalance:  e18(1000),
			Levels: []model.LevelData{{
				RequiredMaturity: 0,
				Multiplier:       1,
				Balance:          e18(1000),
			}},
			DisplayName: "LP Pool",
			ShortName:   "LP",
			URL:         "https://example.com/pool/0",
		}},
	}
}

func TestExtremeAPRScenarioStaysFinite(t *testing.T) {
	snapshot := BuildSnapshot(basicSnapshot(), 10, nil, nil, time.Unix(1_700_000_000, 0))

	require.Len(t, snapshot.Pools, 1)
	pool := snapshot.Pools[0]
	require.Len(t, pool.Levels, 1)
	level := pool.Levels[0]

	assert.InDelta(t, 10, level.RewardRatePerSec, 1e-9)
	assert.InDelta(t, 20, level.RewardUSDPerSec, 1e-9)
	assert.InDelta(t, 20*SecondsPerWeek, level.WeeklyRewardUSD, 1e-3)
	assert.InDelta(t, 63_072_000, level.APR, 1e-3)

	assert.False(t, math.IsNaN(level.APR) || math.IsInf(level.APR, 0))
	assert.False(t, math.IsNaN(snapshot.AverageAPR) || math.IsInf(snapshot.AverageAPR, 0))
}

func TestPoolTVLEqualsSumOfLevelTVLs(t *testing.T) {
	raw := basicSnapshot()
	raw.Pools[0].Levels = []model.LevelData{
		{Multiplier: 1, Balance: e18(400)},
		{RequiredMaturity: 604800, Multiplier: 2, Balance: e18(600)},
	}

	snapshot := BuildSnapshot(raw, 10, nil, nil, time.Unix(1_700_000_000, 0))

	pool := snapshot.Pools[0]
	sum := 0.0
	for _, level := range pool.Levels {
		sum += level.TVLUSD
	}
	assert.InDelta(t, pool.TVLUSD, sum, 1e-9)
	assert.InDelta(t, snapshot.TVLUSD, pool.TVLUSD, 1e-9)
}

func TestZeroTotalAllocPointZeroesEveryShare(t *testing.T) {
	raw := basicSnapshot()
	raw.TotalAllocPoint = 0

	snapshot := BuildSnapshot(raw, 10, nil, nil, time.Unix(1_700_000_000, 0))

	pool := snapshot.Pools[0]
	assert.Zero(t, pool.AllocShare)
	for _, level := range pool.Levels {
		assert.Zero(t, level.AllocShare)
		assert.Zero(t, level.APR)
	}
}

func TestSingleLevelShareEqualsPoolShare(t *testing.T) {
	raw := basicSnapshot()
	raw.Pools[0].AllocPoint = 60

	snapshot := BuildSnapshot(raw, 10, nil, nil, time.Unix(1_700_000_000, 0))

	pool := snapshot.Pools[0]
	assert.Equal(t, pool.AllocShare, pool.Levels[0].AllocShare)
}

func TestProtocolAPRTracksConcentratedTVL(t *testing.T) {
	raw := basicSnapshot()
	empty := raw.Pools[0]
	empty.Index = 1
	empty.AllocPoint = 0
	empty.Levels = []model.LevelData{{Multiplier: 1, Balance: big.NewInt(0)}}
	empty.TotalBalance = big.NewInt(0)
	raw.Pools = append(raw.Pools, empty)

	snapshot := BuildSnapshot(raw, 10, nil, nil, time.Unix(1_700_000_000, 0))

	require.Len(t, snapshot.Pools, 2)
	assert.InDelta(t, snapshot.Pools[0].AverageAPR, snapshot.AverageAPR, 1e-9)
	assert.False(t, snapshot.Pools[1].Active)
}

func TestRelicDisplayDerivation(t *testing.T) {
	raw := basicSnapshot()
	raw.Pools[0].Levels = []model.LevelData{
		{Multiplier: 1, Balance: e18(400)},
		{RequiredMaturity: 1000, Multiplier: 2, Balance: e18(600)},
	}
	now := time.Unix(1_700_000_000, 0)
	user := &model.UserData{
		Relics: []model.RelicData{{
			ID:            7,
			PoolID:        0,
			Amount:        e18(100),
			Entry:         now.Unix() - 400,
			Level:         0,
			PendingReward: e18(3),
			LevelOnUpdate: 1,
		}},
	}

	snapshot := BuildSnapshot(raw, 10, user, nil, now)

	require.Len(t, snapshot.UserRelics, 1)
	relic := snapshot.UserRelics[0]

	assert.Equal(t, "LP", relic.PoolName)
	assert.Equal(t, 1, relic.DisplayLevel)
	assert.Equal(t, 2, relic.LevelCount)
	assert.Equal(t, uint64(1), relic.LevelMultiplier)
	assert.Equal(t, snapshot.Pools[0].Levels[0].APR, relic.LevelAPR)
	assert.True(t, relic.ValuationKnown)
	// 100 tokens of a $1 token.
	assert.InDelta(t, 100, relic.AmountUSD, 1e-9)
	assert.InDelta(t, 6, relic.PendingRewardUSD, 1e-9)
	assert.Equal(t, int64(400), relic.MaturitySeconds)
	assert.Equal(t, int64(600), relic.SecondsToNextLevel)
	assert.True(t, relic.CanClaim)
	assert.True(t, relic.CanLevelUp)

	assert.InDelta(t, 100, snapshot.UserTotals.RelicValueUSD, 1e-9)
	assert.Equal(t, 0, snapshot.UserTotals.PendingReward.Raw().Cmp(e18(3)))
}

func TestRelicValueIsAmountShareOfPoolTVL(t *testing.T) {
	raw := basicSnapshot()
	raw.Pools[0].TokenPriceUSD = 2
	now := time.Unix(1_700_000_000, 0)
	user := &model.UserData{
		Relics: []model.RelicData{{
			ID:            5,
			PoolID:        0,
			Amount:        e18(100),
			Entry:         now.Unix(),
			PendingReward: big.NewInt(0),
		}},
	}

	snapshot := BuildSnapshot(raw, 10, user, nil, now)

	require.Len(t, snapshot.UserRelics, 1)
	relic := snapshot.UserRelics[0]
	// amount x pool TVL / sum of level TVLs: 100 x 2000 / 2000.
	assert.InDelta(t, 100, relic.AmountUSD, 1e-9)
	assert.True(t, relic.ValuationKnown)
}

func TestProtocolWeeklyRewardUsesGlobalEmission(t *testing.T) {
	raw := basicSnapshot()
	raw.TotalAllocPoint = 200
	raw.Pools[0].AllocPoint = 100
	empty := raw.Pools[0]
	empty.Index = 1
	empty.Levels = []model.LevelData{{Multiplier: 1, Balance: big.NewInt(0)}}
	empty.TotalBalance = big.NewInt(0)
	raw.Pools = append(raw.Pools, empty)

	snapshot := BuildSnapshot(raw, 10, nil, nil, time.Unix(1_700_000_000, 0))

	// The empty pool's half of the emission still counts at protocol level.
	assert.InDelta(t, 10*SecondsPerWeek, snapshot.WeeklyEmission, 1e-3)
	assert.InDelta(t, 10*2*SecondsPerWeek, snapshot.WeeklyRewardUSD, 1e-3)
	perPool := 0.0
	for _, pool := range snapshot.Pools {
		perPool += pool.WeeklyRewardUSD
	}
	assert.Less(t, perPool, snapshot.WeeklyRewardUSD)
}

func TestRelicWithoutClaimOrLevelUp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	user := &model.UserData{
		Relics: []model.RelicData{{
			ID:            8,
			PoolID:        0,
			Amount:        e18(1),
			Entry:         now.Unix(),
			Level:         2,
			PendingReward: big.NewInt(0),
			LevelOnUpdate: 2,
		}},
	}

	snapshot := BuildSnapshot(basicSnapshot(), 10, user, nil, now)

	require.Len(t, snapshot.UserRelics, 1)
	assert.False(t, snapshot.UserRelics[0].CanClaim)
	assert.False(t, snapshot.UserRelics[0].CanLevelUp)
}

func TestFilteredPoolRendersSentinelEntry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	user := &model.UserData{
		Relics: []model.RelicData{{
			ID:            9,
			PoolID:        42,
			Amount:        e18(5),
			Entry:         now.Unix(),
			PendingReward: big.NewInt(0),
		}},
	}

	snapshot := BuildSnapshot(basicSnapshot(), 10, user, nil, now)

	require.Len(t, snapshot.UserRelics, 1)
	relic := snapshot.UserRelics[0]
	assert.Equal(t, "Pool #42", relic.PoolName)
	assert.Equal(t, "#", relic.PoolURL)
	assert.Zero(t, relic.AmountUSD)
	assert.False(t, relic.ValuationKnown)
}

func TestMalformedRelicSkippedInGlobalList(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	all := []model.RelicData{
		{ID: 3, PoolID: 0, Amount: nil, PendingReward: big.NewInt(0)},
		{ID: 2, PoolID: 0, Amount: e18(1), Entry: now.Unix(), PendingReward: big.NewInt(0)},
	}

	snapshot := BuildSnapshot(basicSnapshot(), 10, nil, all, now)

	require.Len(t, snapshot.AllRelics, 1)
	assert.Equal(t, uint64(2), snapshot.AllRelics[0].ID)
}

func TestZeroTVLPoolFlagsUnknownValuation(t *testing.T) {
	raw := basicSnapshot()
	raw.Pools[0].Levels = []model.LevelData{{Multiplier: 1, Balance: big.NewInt(0)}}
	raw.Pools[0].TotalBalance = big.NewInt(0)
	now := time.Unix(1_700_000_000, 0)
	user := &model.UserData{
		Relics: []model.RelicData{{
			ID:            4,
			PoolID:        0,
			Amount:        e18(5),
			Entry:         now.Unix(),
			PendingReward: big.NewInt(0),
		}},
	}

	snapshot := BuildSnapshot(raw, 10, user, nil, now)

	require.Len(t, snapshot.UserRelics, 1)
	assert.False(t, snapshot.UserRelics[0].ValuationKnown)
}

func TestActiveRelicsFilter(t *testing.T) {
	relics := []RelicDisplay{
		{ID: 1, Amount: model.ZeroAmount(18), CanClaim: false},
		{ID: 2, Amount: model.AmountFromRaw(e18(1), 18), CanClaim: false},
		{ID: 3, Amount: model.ZeroAmount(18), CanClaim: true},
	}

	active := ActiveRelics(relics)

	require.Len(t, active, 2)
	assert.Equal(t, uint64(2), active[0].ID)
	assert.Equal(t, uint64(3), active[1].ID)
}

func TestTokenHoldingsCarryPoolDecimals(t *testing.T) {
	user := &model.UserData{
		Relics:        nil,
		TokenBalances: map[common.Address]*big.Int{poolToken: e18(7)},
	}

	snapshot := BuildSnapshot(basicSnapshot(), 10, user, nil, time.Unix(1_700_000_000, 0))

	require.Contains(t, snapshot.TokenBalances, poolToken)
	assert.InDelta(t, 7, snapshot.TokenBalances[poolToken].Float(), 1e-9)
}

func TestNeedsApproval(t *testing.T) {
	user := &model.UserData{
		TokenAllowances: map[common.Address]*big.Int{poolToken: e18(5)},
	}
	snapshot := BuildSnapshot(basicSnapshot(), 10, user, nil, time.Unix(1_700_000_000, 0))

	assert.False(t, snapshot.NeedsApproval(poolToken, model.AmountFromRaw(e18(5), 18)))
	assert.True(t, snapshot.NeedsApproval(poolToken, model.AmountFromRaw(e18(6), 18)))
	assert.True(t, snapshot.NeedsApproval(common.HexToAddress("0xffff"), model.AmountFromRaw(e18(1), 18)))
}
