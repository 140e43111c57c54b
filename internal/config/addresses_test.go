package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestContractAddressDeployed(t *testing.T) {
	addr, err := ContractAddress(OptimismChainID, VariantReliquary, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr == (common.Address{}) {
		t.Fatal("expected non-zero address")
	}
}

func TestContractAddressNotDeployed(t *testing.T) {
	_, err := ContractAddress(250, VariantReliquary, 2)
	if !errors.Is(err, ErrNotDeployed) {
		t.Fatalf("error = %v, want ErrNotDeployed", err)
	}
	if !strings.Contains(err.Error(), "chain 250") {
		t.Fatalf("error %q should name the chain", err)
	}
}

func TestParseVariant(t *testing.T) {
	if _, err := ParseVariant("reliquary"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseVariant("staking"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestPoolTokenRegistryCaseInsensitive(t *testing.T) {
	// HexToAddress normalizes case, so mixed-case lookups must hit.
	token := common.HexToAddress("0x676F784D19C7F1AC6C6BEAEAAC78B02A73427852")
	cfg, ok := PoolTokenInfo(token)
	if !ok {
		t.Fatal("OPP token should be registered")
	}
	if cfg.ShortName != "OPP" {
		t.Fatalf("short name = %q, want OPP", cfg.ShortName)
	}
	if IsKnownPoolToken(common.HexToAddress("0x1234")) {
		t.Fatal("unregistered token should not be known")
	}
}

func TestBalancerPoolID(t *testing.T) {
	cfg, ok := PoolTokenInfo(common.HexToAddress("0xadF86a03AF1C77D81380f9fa7c4c797a3ebf2d3A"))
	if !ok {
		t.Fatal("soundwave token should be registered")
	}
	id, ok := cfg.PoolID()
	if !ok {
		t.Fatal("soundwave token should carry a balancer pool id")
	}
	if id == ([32]byte{}) {
		t.Fatal("pool id should be non-zero")
	}

	var none PoolTokenConfig
	if _, ok := none.PoolID(); ok {
		t.Fatal("empty config should have no pool id")
	}
}
