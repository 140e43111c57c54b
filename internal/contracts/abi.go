// Package contracts holds the ABI fragments for every contract surface this
// module reads, parsed once, plus fallible decoders for the returned values.
// Decode failure is treated identically to call failure by callers.
package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const reliquaryABIJSON = `[
  {"inputs": [], "name": "poolLength", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalAllocPoint", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "rewardToken", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "emissionCurve", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "pid", "type": "uint256"}], "name": "poolToken", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "pid", "type": "uint256"}], "name": "getPoolInfo", "outputs": [{"components": [
      {"name": "accRewardPerShare", "type": "uint256"},
      {"name": "lastRewardTime", "type": "uint256"},
      {"name": "allocPoint", "type": "uint256"},
      {"name": "name", "type": "string"},
      {"name": "allowPartialWithdrawals", "type": "bool"}
    ], "name": "pool", "type": "tuple"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "pid", "type": "uint256"}], "name": "getLevelInfo", "outputs": [{"components": [
      {"name": "requiredMaturities", "type": "uint256[]"},
      {"name": "multipliers", "type": "uint256[]"},
      {"name": "balance", "type": "uint256[]"}
    ], "name": "levelInfo", "type": "tuple"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "relicId", "type": "uint256"}], "name": "getPositionForId", "outputs": [{"components": [
      {"name": "amount", "type": "uint256"},
      {"name": "rewardDebt", "type": "uint256"},
      {"name": "rewardCredit", "type": "uint256"},
      {"name": "entry", "type": "uint256"},
      {"name": "poolId", "type": "uint256"},
      {"name": "level", "type": "uint256"}
    ], "name": "position", "type": "tuple"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "relicId", "type": "uint256"}], "name": "pendingReward", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "relicId", "type": "uint256"}], "name": "levelOnUpdate", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}, {"name": "index", "type": "uint256"}], "name": "tokenOfOwnerByIndex", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "index", "type": "uint256"}], "name": "tokenByIndex", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIJSON = `[
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "owner", "type": "address"}, {"name": "spender", "type": "address"}], "name": "allowance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const emissionCurveABIJSON = `[
  {"inputs": [{"name": "level", "type": "uint256"}], "name": "getRate", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const exchangeRateABIJSON = `[
  {"inputs": [], "name": "exchangeRate", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const vaultABIJSON = `[
  {"inputs": [{"name": "poolId", "type": "bytes32"}, {"name": "token", "type": "address"}],
   "name": "getPoolTokenInfo",
   "outputs": [
     {"name": "cash", "type": "uint256"},
     {"name": "managed", "type": "uint256"},
     {"name": "lastChangeBlock", "type": "uint256"},
     {"name": "assetManager", "type": "address"}
   ], "stateMutability": "view", "type": "function"}
]`

var (
	reliquaryABI      abi.ABI
	reliquaryOnce     sync.Once
	reliquaryABIErr   error
	erc20ABI          abi.ABI
	erc20Once         sync.Once
	erc20ABIErr       error
	emissionABI       abi.ABI
	emissionOnce      sync.Once
	emissionABIErr    error
	exchangeABI       abi.ABI
	exchangeOnce      sync.Once
	exchangeABIErr    error
	vaultABI          abi.ABI
	vaultOnce         sync.Once
	vaultABIErr       error
)

func Reliquary() (abi.ABI, error) {
	reliquaryOnce.Do(func() {
		reliquaryABI, reliquaryABIErr = abi.JSON(strings.NewReader(reliquaryABIJSON))
	})
	return reliquaryABI, reliquaryABIErr
}

func ERC20() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

func EmissionCurve() (abi.ABI, error) {
	emissionOnce.Do(func() {
		emissionABI, emissionABIErr = abi.JSON(strings.NewReader(emissionCurveABIJSON))
	})
	return emissionABI, emissionABIErr
}

func ExchangeRate() (abi.ABI, error) {
	exchangeOnce.Do(func() {
		exchangeABI, exchangeABIErr = abi.JSON(strings.NewReader(exchangeRateABIJSON))
	})
	return exchangeABI, exchangeABIErr
}

func Vault() (abi.ABI, error) {
	vaultOnce.Do(func() {
		vaultABI, vaultABIErr = abi.JSON(strings.NewReader(vaultABIJSON))
	})
	return vaultABI, vaultABIErr
}
