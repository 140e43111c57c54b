package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// OptimismChainID is the only chain the protocol is currently deployed on.
const OptimismChainID uint64 = 10

// Variant selects which protocol contract family to read.
type Variant string

const (
	VariantReliquary  Variant = "reliquary"
	VariantAutobribes Variant = "autobribes"
)

// ErrNotDeployed indicates the requested chain/variant/version combination
// has no deployment. Surfaced immediately; never retried.
var ErrNotDeployed = errors.New("not deployed")

// Well-known Optimism addresses.
var (
	OPPToken  = common.HexToAddress("0x676f784d19c7f1ac6c6beaeaac78b02a73427852")
	OPToken   = common.HexToAddress("0x4200000000000000000000000000000000000042")
	WETHToken = common.HexToAddress("0x4200000000000000000000000000000000000006")

	BalancerVault = common.HexToAddress("0xba12222222228d8ba445958a75a0704d566bf2c8")

	// DexScreener pair keys used for price lookups.
	OppEthPair   = common.HexToAddress("0x62191c893df8d26ac295ba1274a00975dc07190c")
	OpUsdcPair   = common.HexToAddress("0x47029bc8f5cbe3b464004e87ef9c9419a48018cd")
	WethUsdcPair = common.HexToAddress("0x79c912fef520be002c2b6e57ec4324e260f38e50")
)

type deploymentKey struct {
	chainID uint64
	variant Variant
	version int
}

var deployments = map[deploymentKey]common.Address{
	{OptimismChainID, VariantReliquary, 1}:  common.HexToAddress("0xb6372b2b157fb80703c985c19a41f76dcbbd4b71"),
	{OptimismChainID, VariantReliquary, 2}:  common.HexToAddress("0x74755891c6383aAE7eDB073E835b89d7C4d815bA"),
	{OptimismChainID, VariantAutobribes, 1}: common.HexToAddress("0x5a863113ac76000faedaaf6a0abf02c21130e3e3"),
	{OptimismChainID, VariantAutobribes, 2}: common.HexToAddress("0xdf62bEbBcA74f3d9E491B80698bCABc298AE4f64"),
}

// ContractAddress resolves the deployment registry. An absent combination is
// a fatal configuration error, not something to retry against a null address.
func ContractAddress(chainID uint64, variant Variant, version int) (common.Address, error) {
	addr, ok := deployments[deploymentKey{chainID, variant, version}]
	if !ok {
		return common.Address{}, fmt.Errorf("%s v%d on chain %d: %w", variant, version, chainID, ErrNotDeployed)
	}
	return addr, nil
}

// ParseVariant validates a variant name from configuration.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantReliquary:
		return VariantReliquary, nil
	case VariantAutobribes:
		return VariantAutobribes, nil
	default:
		return "", fmt.Errorf("unknown contract variant %q", s)
	}
}
