package valuation

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"reliquaryScope/internal/model"
)

const (
	// SecondsPerYear assumes a flat 365-day year.
	SecondsPerYear = 31_536_000
	// SecondsPerWeek converts per-second rates to weekly rates.
	SecondsPerWeek = 604_800
)

var errMalformedRelic = errors.New("malformed relic data")

// BuildSnapshot derives every display metric from a raw protocol snapshot.
// user and allRelics may be nil. The clock is sampled once and applied to
// every maturity countdown in the result.
func BuildSnapshot(raw *model.ReliquaryData, chainID uint64, user *model.UserData, allRelics []model.RelicData, now time.Time) *Snapshot {
	emissionPerSec := rawFloat(raw.EmissionRate, raw.RewardToken.Decimals)

	pools := buildPools(raw, emissionPerSec)

	snapshot := &Snapshot{
		Address:             raw.Address,
		ChainID:             chainID,
		RewardTokenSymbol:   raw.RewardToken.Symbol,
		RewardTokenDecimals: raw.RewardToken.Decimals,
		EmissionPerSec:      emissionPerSec,
		TotalAllocPoint:     raw.TotalAllocPoint,
		NativePriceUSD:      raw.NativePriceUSD,
		RewardTokenPriceUSD: raw.RewardTokenPriceUSD,
		Pools:               pools,
	}

	for _, pool := range pools {
		snapshot.TVLUSD += pool.TVLUSD
	}
	// The protocol-level weekly rate is the full emission stream, not the
	// sum of per-pool distributions: allocation pointed at empty or
	// unregistered pools still leaves the contract at that rate.
	snapshot.WeeklyEmission = emissionPerSec * SecondsPerWeek
	snapshot.WeeklyRewardUSD = snapshot.WeeklyEmission * raw.RewardTokenPriceUSD
	snapshot.AverageAPR = weightedAverage(pools, func(p PoolDisplay) (float64, float64) {
		return p.AverageAPR, p.TVLUSD
	})

	if user != nil {
		// A user relic with a filtered-out pool still shows, under a
		// sentinel pool name; only genuinely malformed data is skipped.
		for _, relic := range user.Relics {
			display, err := buildRelic(pools, relic, raw, now)
			if err != nil {
				continue
			}
			snapshot.UserRelics = append(snapshot.UserRelics, display)
		}
		snapshot.UserTotals = sumTotals(snapshot.UserRelics, raw.RewardToken.Decimals)
		snapshot.TokenBalances = amountsByToken(user.TokenBalances, pools)
		snapshot.TokenAllowances = amountsByToken(user.TokenAllowances, pools)
	}

	snapshot.AllRelics = transformRelics(pools, allRelics, raw, now)
	return snapshot
}

// buildPools derives per-level and per-pool metrics. Reward emissions are
// apportioned to levels proportional to tvl x multiplier within the pool's
// allocation share.
func buildPools(raw *model.ReliquaryData, emissionPerSec float64) []PoolDisplay {
	rewardPrice := raw.RewardTokenPriceUSD
	pools := make([]PoolDisplay, 0, len(raw.Pools))

	for _, pool := range raw.Pools {
		allocShare := 0.0
		if raw.TotalAllocPoint > 0 {
			allocShare = float64(pool.AllocPoint) / float64(raw.TotalAllocPoint)
		}

		display := PoolDisplay{
			Index:         pool.Index,
			Token:         pool.Token,
			TokenSymbol:   pool.TokenSymbol,
			TokenDecimals: pool.TokenDecimals,
			TokenPriceUSD: pool.TokenPriceUSD,
			DisplayName:   pool.DisplayName,
			ShortName:     pool.ShortName,
			URL:           pool.URL,
			Name:          pool.Name,
			Active:        pool.AllocPoint > 0,
			AllocShare:    allocShare,
			Levels:        make([]LevelDisplay, 0, len(pool.Levels)),
		}

		weightSum := 0.0
		tvls := make([]float64, len(pool.Levels))
		for i, level := range pool.Levels {
			amount := model.AmountFromRaw(level.Balance, pool.TokenDecimals)
			tvls[i] = amount.USD(pool.TokenPriceUSD)
			weightSum += tvls[i] * float64(level.Multiplier)
		}

		for i, level := range pool.Levels {
			levelShare := 0.0
			if weightSum > 0 {
				levelShare = (tvls[i] * float64(level.Multiplier)) / weightSum * allocShare
			}
			ratePerSec := levelShare * emissionPerSec
			usdPerSec := ratePerSec * rewardPrice

			apr := 0.0
			if tvls[i] > 0 {
				apr = 100 * usdPerSec * SecondsPerYear / tvls[i]
			}

			display.Levels = append(display.Levels, LevelDisplay{
				RequiredMaturity: level.RequiredMaturity,
				Multiplier:       level.Multiplier,
				Balance:          model.AmountFromRaw(level.Balance, pool.TokenDecimals),
				TVLUSD:           tvls[i],
				AllocShare:       levelShare,
				RewardRatePerSec: ratePerSec,
				RewardUSDPerSec:  usdPerSec,
				WeeklyRewardUSD:  usdPerSec * SecondsPerWeek,
				APR:              apr,
			})
			display.TVLUSD += tvls[i]
			display.WeeklyRewardUSD += usdPerSec * SecondsPerWeek
		}

		display.AverageAPR = weightedAverage(display.Levels, func(l LevelDisplay) (float64, float64) {
			return l.APR, l.TVLUSD
		})
		pools = append(pools, display)
	}
	return pools
}

// transformRelics is the global-list fold: a relic that fails to transform
// is skipped without aborting the rest.
func transformRelics(pools []PoolDisplay, relics []model.RelicData, raw *model.ReliquaryData, now time.Time) []RelicDisplay {
	if len(relics) == 0 {
		return nil
	}
	out := make([]RelicDisplay, 0, len(relics))
	for _, relic := range relics {
		display, err := buildRelic(pools, relic, raw, now)
		if err != nil {
			continue
		}
		out = append(out, display)
	}
	return out
}

// buildRelic derives a single position's display entry. A relic whose pool
// was filtered out upstream still renders under a sentinel pool name with
// zeroed metrics.
func buildRelic(pools []PoolDisplay, relic model.RelicData, raw *model.ReliquaryData, now time.Time) (RelicDisplay, error) {
	if relic.Amount == nil || relic.PendingReward == nil {
		return RelicDisplay{}, errMalformedRelic
	}

	pending := model.AmountFromRaw(relic.PendingReward, raw.RewardToken.Decimals)
	maturity := now.Unix() - relic.Entry

	display := RelicDisplay{
		ID:               relic.ID,
		PoolIndex:        relic.PoolID,
		PoolName:         fmt.Sprintf("Pool #%d", relic.PoolID),
		PoolURL:          "#",
		Amount:           model.AmountFromRaw(relic.Amount, 18),
		PendingReward:    pending,
		PendingRewardUSD: pending.USD(raw.RewardTokenPriceUSD),
		Level:            relic.Level,
		DisplayLevel:     clampLevel(relic.Level, 0),
		Entry:            relic.Entry,
		MaturitySeconds:  maturity,
		CanClaim:         relic.PendingReward.Sign() != 0,
		CanLevelUp:       relic.LevelOnUpdate > relic.Level,
	}

	pool, ok := findPool(pools, relic.PoolID)
	if !ok {
		return display, nil
	}

	amount := model.AmountFromRaw(relic.Amount, pool.TokenDecimals)
	display.PoolName = pool.ShortName
	display.PoolURL = pool.URL
	display.Amount = amount
	display.LevelCount = len(pool.Levels)
	display.DisplayLevel = clampLevel(relic.Level, len(pool.Levels))
	if relic.Level >= 0 && relic.Level < len(pool.Levels) {
		display.LevelMultiplier = pool.Levels[relic.Level].Multiplier
		display.LevelAPR = pool.Levels[relic.Level].APR
	}

	totalTvl := 0.0
	for _, level := range pool.Levels {
		totalTvl += level.TVLUSD
	}
	denominator := totalTvl
	if denominator <= 0 {
		denominator = 1
	} else {
		display.ValuationKnown = true
	}
	display.AmountUSD = amount.Float() * pool.TVLUSD / denominator
	if math.IsNaN(display.AmountUSD) || math.IsInf(display.AmountUSD, 0) {
		display.AmountUSD = 0
		display.ValuationKnown = false
	}

	if relic.Level+1 < len(pool.Levels) {
		next := int64(pool.Levels[relic.Level+1].RequiredMaturity)
		if remaining := next - maturity; remaining > 0 {
			display.SecondsToNextLevel = remaining
		}
	}
	return display, nil
}

// ActiveRelics keeps positions worth showing: a deposited amount or a
// claimable reward.
func ActiveRelics(relics []RelicDisplay) []RelicDisplay {
	out := make([]RelicDisplay, 0, len(relics))
	for _, relic := range relics {
		if !relic.Amount.IsZero() || relic.CanClaim {
			out = append(out, relic)
		}
	}
	return out
}

func sumTotals(relics []RelicDisplay, rewardDecimals uint8) Totals {
	totals := Totals{PendingReward: model.ZeroAmount(rewardDecimals)}
	for _, relic := range relics {
		totals.RelicValueUSD += relic.AmountUSD
		totals.PendingReward = totals.PendingReward.Add(relic.PendingReward)
		totals.PendingRewardUSD += relic.PendingRewardUSD
	}
	return totals
}

// amountsByToken attaches each pool token's decimals to the raw balance and
// allowance figures. Tokens without a matching pool are dropped.
func amountsByToken(raw map[common.Address]*big.Int, pools []PoolDisplay) map[common.Address]model.TokenAmount {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[common.Address]model.TokenAmount, len(raw))
	for _, pool := range pools {
		if v, ok := raw[pool.Token]; ok && v != nil {
			out[pool.Token] = model.AmountFromRaw(v, pool.TokenDecimals)
		}
	}
	return out
}

func findPool(pools []PoolDisplay, index int) (PoolDisplay, bool) {
	for _, pool := range pools {
		if pool.Index == index {
			return pool, true
		}
	}
	return PoolDisplay{}, false
}

// clampLevel shifts a zero-indexed contract level to a 1-indexed display
// level bounded by the pool's level count.
func clampLevel(level, levelCount int) int {
	display := level + 1
	if display < 1 {
		display = 1
	}
	upper := levelCount
	if upper < 1 {
		upper = 1
	}
	if display > upper {
		display = upper
	}
	return display
}

// weightedAverage computes sum(value*weight)/sum(weight), 0 when the
// weights sum to 0.
func weightedAverage[T any](items []T, pick func(T) (value, weight float64)) float64 {
	var num, den float64
	for _, item := range items {
		v, w := pick(item)
		num += v * w
		den += w
	}
	if den <= 0 {
		return 0
	}
	return num / den
}

func rawFloat(v *big.Int, decimals uint8) float64 {
	if v == nil {
		return 0
	}
	return model.AmountFromRaw(v, decimals).Float()
}
