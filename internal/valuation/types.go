// Package valuation turns raw on-chain snapshots into USD-denominated
// display metrics. Everything here is pure computation, the only outside
// input is the wall clock sampled at transform time.
package valuation

import (
	"github.com/ethereum/go-ethereum/common"

	"reliquaryScope/internal/model"
)

// LevelDisplay is one maturity level with its derived reward metrics.
type LevelDisplay struct {
	RequiredMaturity uint64
	Multiplier       uint64
	Balance          model.TokenAmount
	TVLUSD           float64
	AllocShare       float64
	RewardRatePerSec float64
	RewardUSDPerSec  float64
	WeeklyRewardUSD  float64
	APR              float64
}

// PoolDisplay is one pool with its levels and TVL-weighted aggregates.
type PoolDisplay struct {
	Index           int
	Token           common.Address
	TokenSymbol     string
	TokenDecimals   uint8
	TokenPriceUSD   float64
	DisplayName     string
	ShortName       string
	URL             string
	Name            string
	Active          bool
	AllocShare      float64
	TVLUSD          float64
	AverageAPR      float64
	WeeklyRewardUSD float64
	Levels          []LevelDisplay
}

// RelicDisplay is one position prepared for presentation. ValuationKnown is
// false when AmountUSD was produced under a zero-TVL guard and should be
// shown as unknown rather than near-zero.
type RelicDisplay struct {
	ID                 uint64
	PoolIndex          int
	PoolName           string
	PoolURL            string
	Amount             model.TokenAmount
	AmountUSD          float64
	ValuationKnown     bool
	PendingReward      model.TokenAmount
	PendingRewardUSD   float64
	Level              int
	LevelMultiplier    uint64
	LevelAPR           float64
	DisplayLevel       int
	LevelCount         int
	Entry              int64
	MaturitySeconds    int64
	SecondsToNextLevel int64
	CanClaim           bool
	CanLevelUp         bool
}

// Totals accumulates a relic list's value and claimable rewards.
type Totals struct {
	RelicValueUSD    float64
	PendingReward    model.TokenAmount
	PendingRewardUSD float64
}

// Snapshot is the display-ready aggregate handed to presentation callers.
// Immutable once built; refreshes replace it wholesale.
type Snapshot struct {
	Address             common.Address
	ChainID             uint64
	RewardTokenSymbol   string
	RewardTokenDecimals uint8
	EmissionPerSec      float64
	TotalAllocPoint     uint64
	NativePriceUSD      float64
	RewardTokenPriceUSD float64

	Pools           []PoolDisplay
	TVLUSD          float64
	AverageAPR      float64
	WeeklyEmission  float64
	WeeklyRewardUSD float64

	UserRelics      []RelicDisplay
	UserTotals      Totals
	TokenBalances   map[common.Address]model.TokenAmount
	TokenAllowances map[common.Address]model.TokenAmount

	AllRelics        []RelicDisplay
	AllRelicsLoading bool
	AllRelicsLoaded  bool
}

// NeedsApproval reports whether depositing amount of the given pool token
// requires a fresh allowance from the connected wallet.
func (s *Snapshot) NeedsApproval(token common.Address, amount model.TokenAmount) bool {
	allowance, ok := s.TokenAllowances[token]
	if !ok {
		return true
	}
	return amount.GreaterThan(allowance)
}
