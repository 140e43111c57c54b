package config

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PoolTokenConfig carries the display metadata for a known pool token.
// Tokens not in the registry are excluded from aggregation entirely.
type PoolTokenConfig struct {
	DisplayName string
	ShortName   string
	URL         string
	// BalancerPoolID is set for balancer-style weighted-pool LP tokens and
	// enables the vault-based pricing path.
	BalancerPoolID string
}

// PoolID returns the balancer pool id as bytes32, if configured.
func (c PoolTokenConfig) PoolID() ([32]byte, bool) {
	var id [32]byte
	raw := strings.TrimPrefix(c.BalancerPoolID, "0x")
	if raw == "" {
		return id, false
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != 32 {
		return id, false
	}
	copy(id[:], decoded)
	return id, true
}

var poolTokens = map[common.Address]PoolTokenConfig{
	common.HexToAddress("0x676f784d19c7F1Ac6C6BeaeaaC78B02a73427852"): {
		DisplayName: "Optimism Prime $OPP",
		ShortName:   "OPP",
		URL:         "https://velodrome.finance/swap?from=eth&to=0x676f784d19c7f1ac6c6beaeaac78b02a73427852",
	},
	common.HexToAddress("0xbC886d0E4a9a86b26799706577Cae1cE8Ba62522"): {
		DisplayName: "Tarot Borrowable $OPP",
		ShortName:   "Tarot OPP",
		URL:         "https://www.tarot.to/lending-pool/10/0x31ab35018a205d434c31fda7fc6cfab5d58e4ff9",
	},
	common.HexToAddress("0x9E0FeD4F8284B5b81601B4C7Fa50f68DBf958A86"): {
		DisplayName: "Velodrome OPP/ETH V1",
		ShortName:   "OPP/ETH",
		URL:         "https://v1.velodrome.finance/liquidity/manage?address=0x9e0fed4f8284b5b81601b4c7fa50f68dbf958a86",
	},
	common.HexToAddress("0x87BDF9BA91F353777Fb1Fe7cF4b7DFeCF80d714E"): {
		DisplayName: "Velodrome OPP/fBOMB V1",
		ShortName:   "OPP/fBOMB",
		URL:         "https://v1.velodrome.finance/liquidity/manage?address=0x87bdf9ba91f353777fb1fe7cf4b7dfecf80d714e",
	},
	common.HexToAddress("0xaB004E185954e84Bd7BB176BF21eA09897118DdB"): {
		DisplayName: "Velodrome OPP/OP V1",
		ShortName:   "OPP/OP",
		URL:         "https://v1.velodrome.finance/liquidity/manage?address=0xab004e185954e84bd7bb176bf21ea09897118ddb",
	},
	common.HexToAddress("0x62191C893DF8d26aC295BA1274a00975dc07190C"): {
		DisplayName: "Velodrome OPP/ETH V2",
		ShortName:   "OPP/ETH",
		URL:         "https://velodrome.finance/deposit?token0=0x676f784d19c7f1ac6c6beaeaac78b02a73427852&token1=eth&type=-1",
	},
	common.HexToAddress("0x4Ec77c33bD56d2151ACE9f28F6cA27601410e858"): {
		DisplayName: "Velodrome OPP/fBOMB V2",
		ShortName:   "OPP/fBOMB 💥",
		URL:         "https://velodrome.finance/deposit?token0=0x676f784d19c7f1ac6c6beaeaac78b02a73427852&token1=0x74ccbe53f77b08632ce0cb91d3a545bf6b8e0979&type=-1",
	},
	common.HexToAddress("0x30dB561826b820299F0BEF9B8bd8946127b9D89A"): {
		DisplayName: "Velodrome OPP/OP V2",
		ShortName:   "OPP/OP",
		URL:         "https://velodrome.finance/deposit?token0=0x676f784d19c7f1ac6c6beaeaac78b02a73427852&token1=0x4200000000000000000000000000000000000042&type=-1",
	},
	common.HexToAddress("0xAE6c9B2A2777D0396cbE7E13Fc9ACEAC0D052e00"): {
		DisplayName: "Velodrome OPP/opxVELO",
		ShortName:   "OPP/opxVELO",
		URL:         "https://velodrome.finance/deposit?token0=0x676f784d19c7f1ac6c6beaeaac78b02a73427852&token1=0xc38464250f51123078bbd7ea574e185f6623d037&type=-1",
	},
	common.HexToAddress("0x1711BE555D2cDE5fe60142DF0F635d16FB5265BD"): {
		DisplayName: "Velodrome OPP/2192",
		ShortName:   "OPP/2192 ⚔️",
		URL:         "https://velodrome.finance/deposit?token0=0x676f784d19c7f1ac6c6beaeaac78b02a73427852&token1=0x3ed9acaac7bd974eb83a8ea6432a239e3c829d5d&type=-1",
	},
	common.HexToAddress("0xadF86a03AF1C77D81380f9fa7c4c797a3ebf2d3A"): {
		DisplayName:    "BeethovenX Optimism Prime Soundwave",
		ShortName:      "OPP Soundwave 🎵",
		URL:            "https://op.beets.fi/pool/0xadf86a03af1c77d81380f9fa7c4c797a3ebf2d3a000100000000000000000146",
		BalancerPoolID: "0xadf86a03af1c77d81380f9fa7c4c797a3ebf2d3a000100000000000000000146",
	},
	common.HexToAddress("0xe9581d0F1A628B038fC8B2a7F5A7d904f0e2f937"): {
		DisplayName: "Velodrome OP/VELO",
		ShortName:   "OP/VELO",
		URL:         "https://velodrome.finance/deposit?token0=0x4200000000000000000000000000000000000042&token1=0x9560e827af36c94d2ac33a39bce1fe78631088db&stable=false",
	},
	common.HexToAddress("0x6387765fFA609aB9A1dA1B16C455548Bfed7CbEA"): {
		DisplayName: "Velodrome WETH/LUSD",
		ShortName:   "WETH/LUSD",
		URL:         "https://velodrome.finance/deposit?token0=0x4200000000000000000000000000000000000006&token1=0xc40f949f8a4e094d1b49a23ea9241d289b7b2819&stable=false",
	},
	common.HexToAddress("0x3B375bA61920551217f5944F4F5d8a63989A438e"): {
		DisplayName: "Velodrome sUSD/LUSD",
		ShortName:   "sUSD/LUSD",
		URL:         "https://velodrome.finance/deposit?token0=0x8c6f28f2f1a3c87f0f938b96d27520d9751ec8d9&token1=0xc40f949f8a4e094d1b49a23ea9241d289b7b2819&stable=true",
	},
	common.HexToAddress("0xdc2B136A9C1FD2a0b9497bB8b11823c2FBf47Ac4"): {
		DisplayName: "Velodrome ETH/GRAIN",
		ShortName:   "ETH/GRAIN",
		URL:         "https://velodrome.finance/deposit?token0=0x4200000000000000000000000000000000000006&token1=0xfd389dc9533717239856190f42475d3f263a270d&stable=false",
	},
	common.HexToAddress("0x79c912FEF520be002c2B6e57EC4324e260f38E50"): {
		DisplayName: "Velodrome ETH/USDC V1",
		ShortName:   "ETH/USDC",
		URL:         "https://v1.velodrome.finance/liquidity/manage?address=0x79c912fef520be002c2b6e57ec4324e260f38e50",
	},
	common.HexToAddress("0xFFD74EF185989BFF8752c818A53a47FC45388F08"): {
		DisplayName: "Velodrome OP/VELO V1",
		ShortName:   "OP/VELO",
		URL:         "https://v1.velodrome.finance/liquidity/manage?address=0xffd74ef185989bff8752c818a53a47fc45388f08",
	},
	common.HexToAddress("0x91e0fC1E4D32cC62C4f9Bc11aCa5f3a159483d31"): {
		DisplayName: "Velodrome WETH/LUSD V1",
		ShortName:   "WETH/LUSD",
		URL:         "https://v1.velodrome.finance/liquidity/manage?address=0x91e0fc1e4d32cc62c4f9bc11aca5f3a159483d31",
	},
	common.HexToAddress("0x0D693eFd716021878D5979FaB4Cf8f6c1b7ce450"): {
		DisplayName: "Velodrome sUSD/LUSD V1",
		ShortName:   "sUSD/LUSD",
		URL:         "https://v1.velodrome.finance/liquidity/manage?address=0x0d693efd716021878d5979fab4cf8f6c1b7ce450",
	},
}

// PoolTokenInfo returns the display config for a known pool token.
func PoolTokenInfo(token common.Address) (PoolTokenConfig, bool) {
	cfg, ok := poolTokens[token]
	return cfg, ok
}

// IsKnownPoolToken reports whether the token is in the registry.
func IsKnownPoolToken(token common.Address) bool {
	_, ok := poolTokens[token]
	return ok
}
