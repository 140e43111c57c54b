// Package pricing resolves USD prices for pool tokens through an ordered
// chain of fallback strategies. A price of 0 means "unknown", not
// "worthless"; downstream consumers must zero-guard before dividing.
package pricing

import (
	"context"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"reliquaryScope/internal/chain"
	"reliquaryScope/internal/config"
	"reliquaryScope/internal/contracts"
	"reliquaryScope/internal/pricefeed"
)

// exchangeRateCeiling rejects absurd exchangeRate() values before they can
// poison a valuation.
const exchangeRateCeiling = 1e9

// balancerNativeWeight is the native token's share of the configured
// weighted pool (70/30 split).
const balancerNativeWeight = 0.3

// opPriceFallbackUSD is used when the OP price feed comes back empty.
const opPriceFallbackUSD = 1.5

// ContractReader is the read surface the resolver needs from the chain.
type ContractReader interface {
	Read(ctx context.Context, call chain.Call) ([]byte, error)
	BatchRead(ctx context.Context, calls []chain.Call) ([]chain.Result, error)
}

// PairFeed is the external market-data surface.
type PairFeed interface {
	PairData(ctx context.Context, pair common.Address) pricefeed.PairData
	TokenStats(ctx context.Context, pair common.Address) pricefeed.TokenStats
}

// Resolver prices arbitrary pool tokens against the protocol's native token.
type Resolver struct {
	reader ContractReader
	feed   PairFeed
	vault  common.Address
	logger *zap.Logger
}

// NewResolver builds a Resolver. The vault is the balancer-style vault used
// for weighted-pool LP pricing.
func NewResolver(reader ContractReader, feed PairFeed, vault common.Address, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{reader: reader, feed: feed, vault: vault, logger: logger}
}

// NativeTokenStats returns the native token's market stats from its primary
// trading pair.
func (r *Resolver) NativeTokenStats(ctx context.Context) pricefeed.TokenStats {
	return r.feed.TokenStats(ctx, config.OppEthPair)
}

// PoolTokenPriceUSD resolves a pool token's USD price. Strategies are tried
// in strict order, first success wins; a failing step never aborts the
// chain. Returns 0 when every strategy fails.
func (r *Resolver) PoolTokenPriceUSD(ctx context.Context, token, native common.Address, nativePriceUSD float64) float64 {
	if token == native {
		return nativePriceUSD
	}

	if price, ok := r.exchangeRatePrice(ctx, token, nativePriceUSD); ok {
		return price
	}
	if price, ok := r.balancerPoolPrice(ctx, token, native, nativePriceUSD); ok {
		return price
	}
	if price, ok := r.constantProductPrice(ctx, token, native, nativePriceUSD); ok {
		return price
	}
	if price, ok := r.feedImpliedPrice(ctx, token); ok {
		return price
	}

	r.logger.Warn("pool token price unresolvable", zap.String("token", token.Hex()))
	return 0
}

// exchangeRatePrice handles interest-bearing wrapper tokens exposing an
// exchangeRate() view denominated in the native token.
func (r *Resolver) exchangeRatePrice(ctx context.Context, token common.Address, nativePriceUSD float64) (float64, bool) {
	parsed, err := contracts.ExchangeRate()
	if err != nil {
		return 0, false
	}
	data, err := contracts.Pack(parsed, "exchangeRate")
	if err != nil {
		return 0, false
	}

	resp, err := r.reader.Read(ctx, chain.Call{To: token, Data: data})
	if err != nil {
		r.logger.Debug("exchangeRate call failed", zap.String("token", token.Hex()), zap.Error(err))
		return 0, false
	}

	rateRaw, err := contracts.UnpackBigInt(parsed, "exchangeRate", resp)
	if err != nil {
		r.logger.Debug("exchangeRate decode failed", zap.String("token", token.Hex()), zap.Error(err))
		return 0, false
	}

	rate := asFloat(rateRaw) / 1e18
	if math.IsInf(rate, 0) || math.IsNaN(rate) || rate <= 0 || rate >= exchangeRateCeiling {
		return 0, false
	}
	return nativePriceUSD * rate, true
}

// balancerPoolPrice handles registered weighted-pool LP tokens: price the
// whole pool off the vault's native-token cash and the configured weight,
// then divide by LP supply.
func (r *Resolver) balancerPoolPrice(ctx context.Context, token, native common.Address, nativePriceUSD float64) (float64, bool) {
	tokenCfg, ok := config.PoolTokenInfo(token)
	if !ok {
		return 0, false
	}
	poolID, ok := tokenCfg.PoolID()
	if !ok {
		return 0, false
	}

	erc20, err := contracts.ERC20()
	if err != nil {
		return 0, false
	}
	vault, err := contracts.Vault()
	if err != nil {
		return 0, false
	}

	supplyCall, err := contracts.Pack(erc20, "totalSupply")
	if err != nil {
		return 0, false
	}
	infoCall, err := contracts.Pack(vault, "getPoolTokenInfo", poolID, native)
	if err != nil {
		return 0, false
	}

	results, err := r.reader.BatchRead(ctx, []chain.Call{
		{To: token, Data: supplyCall},
		{To: r.vault, Data: infoCall},
	})
	if err != nil || len(results) != 2 || !results[0].Ok() || !results[1].Ok() {
		r.logger.Debug("vault price lookup failed", zap.String("token", token.Hex()), zap.Error(err))
		return 0, false
	}

	supplyRaw, err := contracts.UnpackBigInt(erc20, "totalSupply", results[0].Data)
	if err != nil {
		return 0, false
	}
	cashRaw, err := contracts.UnpackVaultCash(results[1].Data)
	if err != nil {
		return 0, false
	}

	supply := asFloat(supplyRaw) / 1e18
	cash := asFloat(cashRaw) / 1e18
	if supply <= 0 || cash <= 0 {
		return 0, false
	}

	liquidityUSD := nativePriceUSD * cash / balancerNativeWeight
	return liquidityUSD / supply, true
}

// constantProductPrice assumes the LP token is a 50/50-by-value pair holding
// the native token in its own reserves.
func (r *Resolver) constantProductPrice(ctx context.Context, token, native common.Address, nativePriceUSD float64) (float64, bool) {
	erc20, err := contracts.ERC20()
	if err != nil {
		return 0, false
	}

	supplyCall, err := contracts.Pack(erc20, "totalSupply")
	if err != nil {
		return 0, false
	}
	balanceCall, err := contracts.Pack(erc20, "balanceOf", token)
	if err != nil {
		return 0, false
	}

	results, err := r.reader.BatchRead(ctx, []chain.Call{
		{To: token, Data: supplyCall},
		{To: native, Data: balanceCall},
	})
	if err != nil || len(results) != 2 || !results[0].Ok() || !results[1].Ok() {
		r.logger.Debug("reserve price lookup failed", zap.String("token", token.Hex()), zap.Error(err))
		return 0, false
	}

	supplyRaw, err := contracts.UnpackBigInt(erc20, "totalSupply", results[0].Data)
	if err != nil {
		return 0, false
	}
	balanceRaw, err := contracts.UnpackBigInt(erc20, "balanceOf", results[1].Data)
	if err != nil {
		return 0, false
	}

	supply := asFloat(supplyRaw) / 1e18
	nativeBalance := asFloat(balanceRaw) / 1e18
	if supply <= 0 || nativeBalance <= 0 {
		return 0, false
	}

	return 2 * nativePriceUSD * nativeBalance / supply, true
}

// feedImpliedPrice divides the external feed's pool liquidity by the LP
// token's supply, keyed by the LP token's own address.
func (r *Resolver) feedImpliedPrice(ctx context.Context, token common.Address) (float64, bool) {
	pair := r.feed.PairData(ctx, token)
	if pair.LiquidityUSD <= 0 {
		return 0, false
	}

	erc20, err := contracts.ERC20()
	if err != nil {
		return 0, false
	}
	supplyCall, err := contracts.Pack(erc20, "totalSupply")
	if err != nil {
		return 0, false
	}

	resp, err := r.reader.Read(ctx, chain.Call{To: token, Data: supplyCall})
	if err != nil {
		r.logger.Debug("lp supply lookup failed", zap.String("token", token.Hex()), zap.Error(err))
		return 0, false
	}
	supplyRaw, err := contracts.UnpackBigInt(erc20, "totalSupply", resp)
	if err != nil {
		return 0, false
	}

	supply := asFloat(supplyRaw) / 1e18
	if supply <= 0 {
		return 0, false
	}
	return pair.LiquidityUSD / supply, true
}

// RewardTokenPriceUSD prices the protocol's reward token: the governance
// token uses the native feed; a fixed table covers known reward tokens via
// their designated trading pairs; anything else prices at 0.
func (r *Resolver) RewardTokenPriceUSD(ctx context.Context, chainID uint64, token common.Address, nativePriceUSD float64) float64 {
	if token == config.OPPToken {
		return nativePriceUSD
	}
	if chainID != config.OptimismChainID {
		return 0
	}

	switch token {
	case config.OPToken:
		price := r.feed.PairData(ctx, config.OpUsdcPair).PriceUSD
		if price <= 0 {
			return opPriceFallbackUSD
		}
		return price
	case config.WETHToken:
		return r.feed.PairData(ctx, config.WethUsdcPair).PriceUSD
	default:
		return 0
	}
}

func asFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
