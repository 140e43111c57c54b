package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// PoolInfo is the decoded getPoolInfo result.
type PoolInfo struct {
	AccRewardPerShare       *big.Int
	LastRewardTime          *big.Int
	AllocPoint              *big.Int
	Name                    string
	AllowPartialWithdrawals bool
}

// LevelInfo is the decoded getLevelInfo result: parallel arrays, one entry
// per maturity level.
type LevelInfo struct {
	RequiredMaturities []*big.Int
	Multipliers        []*big.Int
	Balance            []*big.Int
}

// Position is the decoded getPositionForId result.
type Position struct {
	Amount       *big.Int
	RewardDebt   *big.Int
	RewardCredit *big.Int
	Entry        *big.Int
	PoolID       *big.Int
	Level        *big.Int
}

// Pack encodes a method call against the given ABI.
func Pack(parsed abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

func unpackSingle(parsed abi.ABI, method string, data []byte) (interface{}, error) {
	values, err := parsed.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: return size %d", method, len(values))
	}
	return values[0], nil
}

// UnpackBigInt decodes a single uint256 return value.
func UnpackBigInt(parsed abi.ABI, method string, data []byte) (*big.Int, error) {
	value, err := unpackSingle(parsed, method, data)
	if err != nil {
		return nil, err
	}
	return AsBigInt(value)
}

// UnpackAddress decodes a single address return value.
func UnpackAddress(parsed abi.ABI, method string, data []byte) (common.Address, error) {
	value, err := unpackSingle(parsed, method, data)
	if err != nil {
		return common.Address{}, err
	}
	return AsAddress(value)
}

// UnpackString decodes a single string return value.
func UnpackString(parsed abi.ABI, method string, data []byte) (string, error) {
	value, err := unpackSingle(parsed, method, data)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unsupported string type %T", value)
	}
	return s, nil
}

// UnpackUint8 decodes a single uint8 return value.
func UnpackUint8(parsed abi.ABI, method string, data []byte) (uint8, error) {
	value, err := unpackSingle(parsed, method, data)
	if err != nil {
		return 0, err
	}
	return AsUint8(value)
}

// UnpackPoolInfo decodes a getPoolInfo return value, validating shape.
func UnpackPoolInfo(data []byte) (PoolInfo, error) {
	parsed, err := Reliquary()
	if err != nil {
		return PoolInfo{}, err
	}
	value, err := unpackSingle(parsed, "getPoolInfo", data)
	if err != nil {
		return PoolInfo{}, err
	}

	info := *abi.ConvertType(value, new(PoolInfo)).(*PoolInfo)
	if info.AllocPoint == nil {
		return PoolInfo{}, fmt.Errorf("getPoolInfo: missing alloc point")
	}
	return info, nil
}

// UnpackLevelInfo decodes a getLevelInfo return value. The three arrays must
// be non-empty and of equal length; anything else is a shape failure.
func UnpackLevelInfo(data []byte) (LevelInfo, error) {
	parsed, err := Reliquary()
	if err != nil {
		return LevelInfo{}, err
	}
	value, err := unpackSingle(parsed, "getLevelInfo", data)
	if err != nil {
		return LevelInfo{}, err
	}

	info := *abi.ConvertType(value, new(LevelInfo)).(*LevelInfo)
	n := len(info.RequiredMaturities)
	if n == 0 || len(info.Multipliers) != n || len(info.Balance) != n {
		return LevelInfo{}, fmt.Errorf("getLevelInfo: invalid shape %d/%d/%d",
			len(info.RequiredMaturities), len(info.Multipliers), len(info.Balance))
	}
	for i := 0; i < n; i++ {
		if info.RequiredMaturities[i] == nil || info.Multipliers[i] == nil || info.Balance[i] == nil {
			return LevelInfo{}, fmt.Errorf("getLevelInfo: nil entry at level %d", i)
		}
	}
	return info, nil
}

// UnpackPosition decodes a getPositionForId return value, validating shape.
func UnpackPosition(data []byte) (Position, error) {
	parsed, err := Reliquary()
	if err != nil {
		return Position{}, err
	}
	value, err := unpackSingle(parsed, "getPositionForId", data)
	if err != nil {
		return Position{}, err
	}

	pos := *abi.ConvertType(value, new(Position)).(*Position)
	if pos.Amount == nil || pos.Entry == nil || pos.PoolID == nil || pos.Level == nil {
		return Position{}, fmt.Errorf("getPositionForId: incomplete position")
	}
	return pos, nil
}

// UnpackVaultCash decodes the cash balance from a getPoolTokenInfo result.
func UnpackVaultCash(data []byte) (*big.Int, error) {
	parsed, err := Vault()
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("getPoolTokenInfo", data)
	if err != nil {
		return nil, fmt.Errorf("unpack getPoolTokenInfo: %w", err)
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("unpack getPoolTokenInfo: return size %d", len(values))
	}
	return AsBigInt(values[0])
}

// AsBigInt coerces a decoded ABI value to *big.Int.
func AsBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

// AsAddress coerces a decoded ABI value to common.Address.
func AsAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

// AsUint8 coerces a decoded ABI value to uint8.
func AsUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
