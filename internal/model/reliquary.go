package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// LevelData is one maturity level of a pool as read from the contract.
// Levels are ordered by ascending required maturity; level 0 is the entry
// level.
type LevelData struct {
	RequiredMaturity uint64
	Multiplier       uint64
	Balance          *big.Int
}

// PoolData is a pool's raw on-chain state plus its registry display config.
type PoolData struct {
	Index         int
	Token         common.Address
	TokenSymbol   string
	TokenDecimals uint8
	TokenPriceUSD float64
	AllocPoint    uint64
	TotalBalance  *big.Int
	Levels        []LevelData
	DisplayName   string
	ShortName     string
	URL           string
	Name          string
}

// RelicData is one staking position as read from the contract.
type RelicData struct {
	ID            uint64
	PoolID        int
	Amount        *big.Int
	Entry         int64
	Level         int
	PendingReward *big.Int
	LevelOnUpdate int
}

// RewardTokenData is the reward token's metadata and its balance held by the
// protocol contract.
type RewardTokenData struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
	Balance  *big.Int
}

// ReliquaryData is the protocol-wide raw snapshot. Immutable once built; a
// fresh one is assembled on every refresh.
type ReliquaryData struct {
	Address             common.Address
	RewardToken         RewardTokenData
	EmissionRate        *big.Int
	TotalAllocPoint     uint64
	Pools               []PoolData
	NativePriceUSD      float64
	RewardTokenPriceUSD float64
}

// UserData holds the connected wallet's positions and per-token balances and
// allowances against the protocol contract.
type UserData struct {
	Relics          []RelicData
	TokenBalances   map[common.Address]*big.Int
	TokenAllowances map[common.Address]*big.Int
}

// PoolMetrics is one persisted per-pool valuation sample.
type PoolMetrics struct {
	ChainID    uint64  `json:"chain_id"`
	PoolIndex  int     `json:"pool_index"`
	Token      string  `json:"token"`
	ShortName  string  `json:"short_name"`
	TVLUSD     float64 `json:"tvl_usd"`
	AverageAPR float64 `json:"average_apr"`
	AllocShare float64 `json:"alloc_share"`
	TakenAt    int64   `json:"taken_at"`
}
