// Package reliquary assembles protocol, user and global position snapshots
// from batched contract reads. Partial failures degrade individual entries;
// they never abort a whole read.
package reliquary

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reliquaryScope/internal/chain"
	"reliquaryScope/internal/config"
	"reliquaryScope/internal/contracts"
	"reliquaryScope/internal/model"
	"reliquaryScope/internal/pricefeed"
)

const defaultTokenDecimals = 18

// ContractReader is the read surface the aggregator needs from the chain.
type ContractReader interface {
	Read(ctx context.Context, call chain.Call) ([]byte, error)
	ReadRetrying(ctx context.Context, call chain.Call, maxRetries int) ([]byte, error)
	BatchRead(ctx context.Context, calls []chain.Call) ([]chain.Result, error)
	BatchReadRetrying(ctx context.Context, calls []chain.Call, maxRetries int) ([]chain.Result, error)
}

// PriceResolver prices the native token, pool tokens and the reward token.
type PriceResolver interface {
	NativeTokenStats(ctx context.Context) pricefeed.TokenStats
	PoolTokenPriceUSD(ctx context.Context, token, native common.Address, nativePriceUSD float64) float64
	RewardTokenPriceUSD(ctx context.Context, chainID uint64, token common.Address, nativePriceUSD float64) float64
}

// Config bounds the global enumeration and the retry budgets. The delays
// space successive batches so bulk enumeration stays under provider
// request-rate limits.
type Config struct {
	MaxRetries int

	MaxRelics      int
	IDBatchSize    int
	IDBatchDelay   time.Duration
	IDRetryDelay   time.Duration
	DataBatchSize  int
	DataBatchDelay time.Duration
	DataItemDelay  time.Duration

	PriceWorkers int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     5,
		MaxRelics:      150,
		IDBatchSize:    25,
		IDBatchDelay:   120 * time.Millisecond,
		IDRetryDelay:   40 * time.Millisecond,
		DataBatchSize:  12,
		DataBatchDelay: 150 * time.Millisecond,
		DataItemDelay:  15 * time.Millisecond,
		PriceWorkers:   4,
	}
}

// Reader aggregates the protocol's on-chain state into model snapshots.
type Reader struct {
	reader   ContractReader
	resolver PriceResolver
	contract common.Address
	chainID  uint64
	cfg      Config
	logger   *zap.Logger
}

// NewReader builds a Reader bound to one deployed contract.
func NewReader(reader ContractReader, resolver PriceResolver, contract common.Address, chainID uint64, cfg Config, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.MaxRelics <= 0 {
		cfg.MaxRelics = def.MaxRelics
	}
	if cfg.IDBatchSize <= 0 {
		cfg.IDBatchSize = def.IDBatchSize
	}
	if cfg.DataBatchSize <= 0 {
		cfg.DataBatchSize = def.DataBatchSize
	}
	if cfg.PriceWorkers <= 0 {
		cfg.PriceWorkers = def.PriceWorkers
	}
	return &Reader{
		reader:   reader,
		resolver: resolver,
		contract: contract,
		chainID:  chainID,
		cfg:      cfg,
		logger:   logger,
	}
}

// ReadProtocol assembles the protocol-wide snapshot: globals, reward token,
// the registered pools with their maturity levels, and USD prices.
func (r *Reader) ReadProtocol(ctx context.Context) (*model.ReliquaryData, error) {
	reliquaryABI, err := contracts.Reliquary()
	if err != nil {
		return nil, err
	}
	erc20ABI, err := contracts.ERC20()
	if err != nil {
		return nil, err
	}
	curveABI, err := contracts.EmissionCurve()
	if err != nil {
		return nil, err
	}

	// Globals in one round trip; any missing piece aborts, nothing below
	// can be assembled without them.
	globalCalls, err := r.packContractCalls(reliquaryABI,
		"poolLength", "totalAllocPoint", "rewardToken", "emissionCurve")
	if err != nil {
		return nil, err
	}
	globals, err := r.reader.BatchReadRetrying(ctx, globalCalls, r.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read globals: %w", err)
	}
	for i, res := range globals {
		if !res.Ok() {
			return nil, fmt.Errorf("read globals: call %d: %w", i, res.Err)
		}
	}

	poolCount, err := contracts.UnpackBigInt(reliquaryABI, "poolLength", globals[0].Data)
	if err != nil {
		return nil, err
	}
	totalAllocPoint, err := contracts.UnpackBigInt(reliquaryABI, "totalAllocPoint", globals[1].Data)
	if err != nil {
		return nil, err
	}
	rewardTokenAddr, err := contracts.UnpackAddress(reliquaryABI, "rewardToken", globals[2].Data)
	if err != nil {
		return nil, err
	}
	curveAddr, err := contracts.UnpackAddress(reliquaryABI, "emissionCurve", globals[3].Data)
	if err != nil {
		return nil, err
	}

	rewardToken, emissionRate := r.readRewardToken(ctx, erc20ABI, curveABI, rewardTokenAddr, curveAddr)

	nativeStats := r.resolver.NativeTokenStats(ctx)
	rewardPrice := r.resolver.RewardTokenPriceUSD(ctx, r.chainID, rewardTokenAddr, nativeStats.PriceUSD)

	pools, err := r.readPools(ctx, reliquaryABI, erc20ABI, int(poolCount.Int64()), nativeStats.PriceUSD)
	if err != nil {
		return nil, err
	}

	return &model.ReliquaryData{
		Address:             r.contract,
		RewardToken:         rewardToken,
		EmissionRate:        emissionRate,
		TotalAllocPoint:     totalAllocPoint.Uint64(),
		Pools:               pools,
		NativePriceUSD:      nativeStats.PriceUSD,
		RewardTokenPriceUSD: rewardPrice,
	}, nil
}

// readRewardToken fetches the reward token's metadata and the current
// emission rate. Individual failures degrade to zero values; the snapshot
// stays usable without them.
func (r *Reader) readRewardToken(ctx context.Context, erc20ABI, curveABI abi.ABI, token, curve common.Address) (model.RewardTokenData, *big.Int) {
	calls := make([]chain.Call, 0, 5)
	for _, method := range []string{"name", "symbol", "decimals"} {
		data, err := contracts.Pack(erc20ABI, method)
		if err != nil {
			return model.RewardTokenData{Address: token, Balance: big.NewInt(0)}, big.NewInt(0)
		}
		calls = append(calls, chain.Call{To: token, Data: data})
	}
	balanceData, err := contracts.Pack(erc20ABI, "balanceOf", r.contract)
	if err != nil {
		return model.RewardTokenData{Address: token, Balance: big.NewInt(0)}, big.NewInt(0)
	}
	rateData, err := contracts.Pack(curveABI, "getRate", big.NewInt(0))
	if err != nil {
		return model.RewardTokenData{Address: token, Balance: big.NewInt(0)}, big.NewInt(0)
	}
	calls = append(calls,
		chain.Call{To: token, Data: balanceData},
		chain.Call{To: curve, Data: rateData},
	)

	out := model.RewardTokenData{Address: token, Decimals: defaultTokenDecimals, Balance: big.NewInt(0)}
	rate := big.NewInt(0)

	results, err := r.reader.BatchReadRetrying(ctx, calls, r.cfg.MaxRetries)
	if err != nil {
		r.logger.Warn("reward token batch failed", zap.Error(err))
		return out, rate
	}

	if results[0].Ok() {
		if v, err := contracts.UnpackString(erc20ABI, "name", results[0].Data); err == nil {
			out.Name = v
		}
	}
	if results[1].Ok() {
		if v, err := contracts.UnpackString(erc20ABI, "symbol", results[1].Data); err == nil {
			out.Symbol = v
		}
	}
	if results[2].Ok() {
		if v, err := contracts.UnpackUint8(erc20ABI, "decimals", results[2].Data); err == nil {
			out.Decimals = v
		}
	}
	if results[3].Ok() {
		if v, err := contracts.UnpackBigInt(erc20ABI, "balanceOf", results[3].Data); err == nil {
			out.Balance = v
		}
	}
	if results[4].Ok() {
		if v, err := contracts.UnpackBigInt(curveABI, "getRate", results[4].Data); err == nil {
			rate = v
		}
	} else {
		r.logger.Warn("emission rate unavailable", zap.String("curve", curve.Hex()))
	}
	return out, rate
}

// readPools enumerates pool token addresses, filters to the registered
// tokens, reads each survivor's state and prices them concurrently. A pool
// with an unreadable or malformed state is skipped, not half-built.
func (r *Reader) readPools(ctx context.Context, reliquaryABI, erc20ABI abi.ABI, poolCount int, nativePriceUSD float64) ([]model.PoolData, error) {
	if poolCount <= 0 {
		return nil, nil
	}

	tokenCalls := make([]chain.Call, 0, poolCount)
	for i := 0; i < poolCount; i++ {
		data, err := contracts.Pack(reliquaryABI, "poolToken", big.NewInt(int64(i)))
		if err != nil {
			return nil, err
		}
		tokenCalls = append(tokenCalls, chain.Call{To: r.contract, Data: data})
	}
	tokenResults, err := r.reader.BatchReadRetrying(ctx, tokenCalls, r.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read pool tokens: %w", err)
	}

	type poolRef struct {
		index int
		token common.Address
		cfg   config.PoolTokenConfig
	}
	refs := make([]poolRef, 0, poolCount)
	for i, res := range tokenResults {
		if !res.Ok() {
			r.logger.Warn("pool token unreadable", zap.Int("pool", i))
			continue
		}
		token, err := contracts.UnpackAddress(reliquaryABI, "poolToken", res.Data)
		if err != nil {
			r.logger.Warn("pool token undecodable", zap.Int("pool", i), zap.Error(err))
			continue
		}
		tokenCfg, known := config.PoolTokenInfo(token)
		if !known {
			r.logger.Debug("unregistered pool token skipped",
				zap.Int("pool", i), zap.String("token", token.Hex()))
			continue
		}
		refs = append(refs, poolRef{index: i, token: token, cfg: tokenCfg})
	}
	if len(refs) == 0 {
		return nil, nil
	}

	// Four calls per surviving pool, one round trip for all of them.
	const callsPerPool = 4
	calls := make([]chain.Call, 0, len(refs)*callsPerPool)
	for _, ref := range refs {
		infoData, err := contracts.Pack(reliquaryABI, "getPoolInfo", big.NewInt(int64(ref.index)))
		if err != nil {
			return nil, err
		}
		levelData, err := contracts.Pack(reliquaryABI, "getLevelInfo", big.NewInt(int64(ref.index)))
		if err != nil {
			return nil, err
		}
		symbolData, err := contracts.Pack(erc20ABI, "symbol")
		if err != nil {
			return nil, err
		}
		decimalsData, err := contracts.Pack(erc20ABI, "decimals")
		if err != nil {
			return nil, err
		}
		calls = append(calls,
			chain.Call{To: r.contract, Data: infoData},
			chain.Call{To: r.contract, Data: levelData},
			chain.Call{To: ref.token, Data: symbolData},
			chain.Call{To: ref.token, Data: decimalsData},
		)
	}
	results, err := r.reader.BatchReadRetrying(ctx, calls, r.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read pool state: %w", err)
	}

	pools := make([]model.PoolData, 0, len(refs))
	for n, ref := range refs {
		base := n * callsPerPool
		infoRes, levelRes := results[base], results[base+1]
		symbolRes, decimalsRes := results[base+2], results[base+3]

		if !infoRes.Ok() || !levelRes.Ok() {
			r.logger.Warn("pool state unreadable", zap.Int("pool", ref.index))
			continue
		}
		info, err := contracts.UnpackPoolInfo(infoRes.Data)
		if err != nil {
			r.logger.Warn("pool info invalid", zap.Int("pool", ref.index), zap.Error(err))
			continue
		}
		levels, err := contracts.UnpackLevelInfo(levelRes.Data)
		if err != nil {
			r.logger.Warn("level info invalid", zap.Int("pool", ref.index), zap.Error(err))
			continue
		}

		symbol := ""
		if symbolRes.Ok() {
			if v, err := contracts.UnpackString(erc20ABI, "symbol", symbolRes.Data); err == nil {
				symbol = v
			}
		}
		decimals := uint8(18)
		if decimalsRes.Ok() {
			if v, err := contracts.UnpackUint8(erc20ABI, "decimals", decimalsRes.Data); err == nil {
				decimals = v
			}
		} else {
			r.logger.Warn("token decimals unreadable, assuming 18",
				zap.String("token", ref.token.Hex()))
		}

		pool := model.PoolData{
			Index:         ref.index,
			Token:         ref.token,
			TokenSymbol:   symbol,
			TokenDecimals: decimals,
			AllocPoint:    info.AllocPoint.Uint64(),
			TotalBalance:  big.NewInt(0),
			Levels:        make([]model.LevelData, 0, len(levels.RequiredMaturities)),
			DisplayName:   ref.cfg.DisplayName,
			ShortName:     ref.cfg.ShortName,
			URL:           ref.cfg.URL,
			Name:          info.Name,
		}
		for i := range levels.RequiredMaturities {
			pool.Levels = append(pool.Levels, model.LevelData{
				RequiredMaturity: levels.RequiredMaturities[i].Uint64(),
				Multiplier:       levels.Multipliers[i].Uint64(),
				Balance:          new(big.Int).Set(levels.Balance[i]),
			})
			pool.TotalBalance.Add(pool.TotalBalance, levels.Balance[i])
		}
		pools = append(pools, pool)
	}

	// Prices are independent per pool, resolve them concurrently. A token
	// whose every strategy fails prices at 0, which is not an error here.
	group, groupCtx := errgroup.WithContext(ctx)
	if r.cfg.PriceWorkers > 0 {
		group.SetLimit(r.cfg.PriceWorkers)
	}
	for i := range pools {
		i := i
		group.Go(func() error {
			pools[i].TokenPriceUSD = r.resolver.PoolTokenPriceUSD(
				groupCtx, pools[i].Token, config.OPPToken, nativePriceUSD)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return pools, nil
}

// ReadUser assembles the wallet-scoped view: the user's relics plus per-pool
// token balances and allowances against the protocol contract.
func (r *Reader) ReadUser(ctx context.Context, user common.Address, pools []model.PoolData) (*model.UserData, error) {
	reliquaryABI, err := contracts.Reliquary()
	if err != nil {
		return nil, err
	}
	erc20ABI, err := contracts.ERC20()
	if err != nil {
		return nil, err
	}

	balanceData, err := contracts.Pack(reliquaryABI, "balanceOf", user)
	if err != nil {
		return nil, err
	}
	resp, err := r.reader.ReadRetrying(ctx, chain.Call{To: r.contract, Data: balanceData}, r.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read relic count: %w", err)
	}
	count, err := contracts.UnpackBigInt(reliquaryABI, "balanceOf", resp)
	if err != nil {
		return nil, err
	}

	ids, err := r.readOwnedIDs(ctx, reliquaryABI, user, int(count.Int64()))
	if err != nil {
		return nil, err
	}
	relics, err := r.readRelicPage(ctx, reliquaryABI, ids, 0, 0)
	if err != nil {
		return nil, err
	}

	balances, allowances, err := r.readTokenHoldings(ctx, erc20ABI, user, pools)
	if err != nil {
		return nil, err
	}

	return &model.UserData{
		Relics:          relics,
		TokenBalances:   balances,
		TokenAllowances: allowances,
	}, nil
}

// readOwnedIDs enumerates the user's relic ids. Elements that fail inside
// the batch are retried one by one before being skipped.
func (r *Reader) readOwnedIDs(ctx context.Context, reliquaryABI abi.ABI, user common.Address, count int) ([]uint64, error) {
	if count <= 0 {
		return nil, nil
	}
	calls := make([]chain.Call, 0, count)
	for i := 0; i < count; i++ {
		data, err := contracts.Pack(reliquaryABI, "tokenOfOwnerByIndex", user, big.NewInt(int64(i)))
		if err != nil {
			return nil, err
		}
		calls = append(calls, chain.Call{To: r.contract, Data: data})
	}
	results, err := r.reader.BatchReadRetrying(ctx, calls, r.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("enumerate relics: %w", err)
	}

	ids := make([]uint64, 0, count)
	for i, res := range results {
		data := res.Data
		if !res.Ok() {
			retried, err := r.reader.ReadRetrying(ctx, calls[i], r.cfg.MaxRetries)
			if err != nil {
				r.logger.Warn("relic id unreadable", zap.Int("index", i), zap.Error(err))
				continue
			}
			data = retried
		}
		id, err := contracts.UnpackBigInt(reliquaryABI, "tokenOfOwnerByIndex", data)
		if err != nil {
			r.logger.Warn("relic id undecodable", zap.Int("index", i), zap.Error(err))
			continue
		}
		ids = append(ids, id.Uint64())
	}
	return ids, nil
}

// readRelicPage fetches position, pending reward and level-on-update for a
// page of relic ids in one round trip. A relic whose position stays
// unreadable after an individual retry is dropped; reward and level
// failures retry once individually then default.
func (r *Reader) readRelicPage(ctx context.Context, reliquaryABI abi.ABI, ids []uint64, itemDelay, batchDelay time.Duration) ([]model.RelicData, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const callsPerRelic = 3
	calls := make([]chain.Call, 0, len(ids)*callsPerRelic)
	for _, id := range ids {
		idArg := new(big.Int).SetUint64(id)
		posData, err := contracts.Pack(reliquaryABI, "getPositionForId", idArg)
		if err != nil {
			return nil, err
		}
		rewardData, err := contracts.Pack(reliquaryABI, "pendingReward", idArg)
		if err != nil {
			return nil, err
		}
		levelData, err := contracts.Pack(reliquaryABI, "levelOnUpdate", idArg)
		if err != nil {
			return nil, err
		}
		calls = append(calls,
			chain.Call{To: r.contract, Data: posData},
			chain.Call{To: r.contract, Data: rewardData},
			chain.Call{To: r.contract, Data: levelData},
		)
	}
	results, err := r.reader.BatchReadRetrying(ctx, calls, r.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read relic data: %w", err)
	}
	if batchDelay > 0 {
		if err := sleep(ctx, batchDelay); err != nil {
			return nil, err
		}
	}

	relics := make([]model.RelicData, 0, len(ids))
	for n, id := range ids {
		base := n * callsPerRelic

		posBytes, ok := r.resolveElement(ctx, results[base], calls[base], itemDelay)
		if !ok {
			r.logger.Warn("relic position unreadable, dropping", zap.Uint64("relic", id))
			continue
		}
		pos, err := contracts.UnpackPosition(posBytes)
		if err != nil {
			r.logger.Warn("relic position invalid, dropping", zap.Uint64("relic", id), zap.Error(err))
			continue
		}

		relic := model.RelicData{
			ID:            id,
			PoolID:        int(pos.PoolID.Int64()),
			Amount:        new(big.Int).Set(pos.Amount),
			Entry:         pos.Entry.Int64(),
			Level:         int(pos.Level.Int64()),
			PendingReward: big.NewInt(0),
			LevelOnUpdate: int(pos.Level.Int64()),
		}

		if rewardBytes, ok := r.resolveElement(ctx, results[base+1], calls[base+1], itemDelay); ok {
			if v, err := contracts.UnpackBigInt(reliquaryABI, "pendingReward", rewardBytes); err == nil {
				relic.PendingReward = v
			}
		} else {
			r.logger.Warn("pending reward unreadable, defaulting to zero", zap.Uint64("relic", id))
		}
		if levelBytes, ok := r.resolveElement(ctx, results[base+2], calls[base+2], itemDelay); ok {
			if v, err := contracts.UnpackBigInt(reliquaryABI, "levelOnUpdate", levelBytes); err == nil {
				relic.LevelOnUpdate = int(v.Int64())
			}
		}

		relics = append(relics, relic)
	}
	return relics, nil
}

// resolveElement returns a batch element's payload, falling back to one
// individually retried read when the element failed in-batch.
func (r *Reader) resolveElement(ctx context.Context, res chain.Result, call chain.Call, delay time.Duration) ([]byte, bool) {
	if res.Ok() {
		return res.Data, true
	}
	if delay > 0 {
		if err := sleep(ctx, delay); err != nil {
			return nil, false
		}
	}
	data, err := r.reader.ReadRetrying(ctx, call, r.cfg.MaxRetries)
	if err != nil {
		return nil, false
	}
	return data, true
}

// readTokenHoldings reads the user's balance and protocol allowance for
// every distinct pool token. Unreadable entries are omitted from the maps
// rather than recorded as zero.
func (r *Reader) readTokenHoldings(ctx context.Context, erc20ABI abi.ABI, user common.Address, pools []model.PoolData) (map[common.Address]*big.Int, map[common.Address]*big.Int, error) {
	tokens := make([]common.Address, 0, len(pools))
	seen := make(map[common.Address]bool, len(pools))
	for _, pool := range pools {
		if seen[pool.Token] {
			continue
		}
		seen[pool.Token] = true
		tokens = append(tokens, pool.Token)
	}

	balances := make(map[common.Address]*big.Int, len(tokens))
	allowances := make(map[common.Address]*big.Int, len(tokens))
	if len(tokens) == 0 {
		return balances, allowances, nil
	}

	calls := make([]chain.Call, 0, len(tokens)*2)
	for _, token := range tokens {
		balanceData, err := contracts.Pack(erc20ABI, "balanceOf", user)
		if err != nil {
			return nil, nil, err
		}
		allowanceData, err := contracts.Pack(erc20ABI, "allowance", user, r.contract)
		if err != nil {
			return nil, nil, err
		}
		calls = append(calls,
			chain.Call{To: token, Data: balanceData},
			chain.Call{To: token, Data: allowanceData},
		)
	}
	results, err := r.reader.BatchReadRetrying(ctx, calls, r.cfg.MaxRetries)
	if err != nil {
		return nil, nil, fmt.Errorf("read token holdings: %w", err)
	}

	for i, token := range tokens {
		balanceRes, allowanceRes := results[i*2], results[i*2+1]
		if balanceRes.Ok() {
			if v, err := contracts.UnpackBigInt(erc20ABI, "balanceOf", balanceRes.Data); err == nil {
				balances[token] = v
			}
		}
		if allowanceRes.Ok() {
			if v, err := contracts.UnpackBigInt(erc20ABI, "allowance", allowanceRes.Data); err == nil {
				allowances[token] = v
			}
		}
	}
	return balances, allowances, nil
}

// ReadAllRelics enumerates every minted relic up to the configured cap,
// paging and pacing the reads to stay under provider rate limits. The
// result is sorted by descending id, most recently minted first.
func (r *Reader) ReadAllRelics(ctx context.Context) ([]model.RelicData, error) {
	reliquaryABI, err := contracts.Reliquary()
	if err != nil {
		return nil, err
	}

	supplyData, err := contracts.Pack(reliquaryABI, "totalSupply")
	if err != nil {
		return nil, err
	}
	resp, err := r.reader.ReadRetrying(ctx, chain.Call{To: r.contract, Data: supplyData}, r.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("read relic supply: %w", err)
	}
	supply, err := contracts.UnpackBigInt(reliquaryABI, "totalSupply", resp)
	if err != nil {
		return nil, err
	}
	total := int(supply.Int64())
	if total > r.cfg.MaxRelics {
		r.logger.Info("capping relic enumeration",
			zap.Int("supply", total), zap.Int("cap", r.cfg.MaxRelics))
		total = r.cfg.MaxRelics
	}
	if total <= 0 {
		return nil, nil
	}

	ids, err := r.readAllIDs(ctx, reliquaryABI, total)
	if err != nil {
		return nil, err
	}

	relics := make([]model.RelicData, 0, len(ids))
	for start := 0; start < len(ids); start += r.cfg.DataBatchSize {
		end := start + r.cfg.DataBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		page, err := r.readRelicPage(ctx, reliquaryABI, ids[start:end], r.cfg.DataItemDelay, r.cfg.DataBatchDelay)
		if err != nil {
			return nil, err
		}
		relics = append(relics, page...)
	}

	sort.Slice(relics, func(i, j int) bool { return relics[i].ID > relics[j].ID })
	return relics, nil
}

// readAllIDs pages through tokenByIndex for indices [0, total), spacing
// batches apart and retrying failed indices one by one.
func (r *Reader) readAllIDs(ctx context.Context, reliquaryABI abi.ABI, total int) ([]uint64, error) {
	ids := make([]uint64, 0, total)
	for start := 0; start < total; start += r.cfg.IDBatchSize {
		end := start + r.cfg.IDBatchSize
		if end > total {
			end = total
		}

		calls := make([]chain.Call, 0, end-start)
		for i := start; i < end; i++ {
			data, err := contracts.Pack(reliquaryABI, "tokenByIndex", big.NewInt(int64(i)))
			if err != nil {
				return nil, err
			}
			calls = append(calls, chain.Call{To: r.contract, Data: data})
		}
		results, err := r.reader.BatchReadRetrying(ctx, calls, r.cfg.MaxRetries)
		if err != nil {
			return nil, fmt.Errorf("enumerate relic ids: %w", err)
		}

		for i, res := range results {
			data, ok := r.resolveElement(ctx, res, calls[i], r.cfg.IDRetryDelay)
			if !ok {
				r.logger.Warn("relic id unreadable", zap.Int("index", start+i))
				continue
			}
			id, err := contracts.UnpackBigInt(reliquaryABI, "tokenByIndex", data)
			if err != nil {
				r.logger.Warn("relic id undecodable", zap.Int("index", start+i), zap.Error(err))
				continue
			}
			ids = append(ids, id.Uint64())
		}

		if end < total && r.cfg.IDBatchDelay > 0 {
			if err := sleep(ctx, r.cfg.IDBatchDelay); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

// packContractCalls packs zero-argument views against the protocol contract.
func (r *Reader) packContractCalls(parsed abi.ABI, methods ...string) ([]chain.Call, error) {
	calls := make([]chain.Call, 0, len(methods))
	for _, method := range methods {
		data, err := contracts.Pack(parsed, method)
		if err != nil {
			return nil, err
		}
		calls = append(calls, chain.Call{To: r.contract, Data: data})
	}
	return calls, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
