package chain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const multicall3ABIJSON = `[
  {"inputs": [{"components": [
      {"internalType": "address", "name": "target", "type": "address"},
      {"internalType": "bool", "name": "allowFailure", "type": "bool"},
      {"internalType": "bytes", "name": "callData", "type": "bytes"}
    ], "internalType": "struct Multicall3.Call3[]", "name": "calls", "type": "tuple[]"}],
   "name": "aggregate3",
   "outputs": [{"components": [
      {"internalType": "bool", "name": "success", "type": "bool"},
      {"internalType": "bytes", "name": "returnData", "type": "bytes"}
    ], "internalType": "struct Multicall3.Result[]", "name": "returnData", "type": "tuple[]"}],
   "stateMutability": "payable", "type": "function"}
]`

var (
	multicall3ABI     abi.ABI
	multicall3Once    sync.Once
	multicall3ABIErr  error
)

func multicall3Instance() (abi.ABI, error) {
	multicall3Once.Do(func() {
		multicall3ABI, multicall3ABIErr = abi.JSON(strings.NewReader(multicall3ABIJSON))
	})
	return multicall3ABI, multicall3ABIErr
}

type aggregate3Call struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

type aggregate3Result struct {
	Success    bool
	ReturnData []byte
}

func packAggregate3(calls []Call) ([]byte, error) {
	parsed, err := multicall3Instance()
	if err != nil {
		return nil, fmt.Errorf("parse multicall abi: %w", err)
	}

	wrapped := make([]aggregate3Call, 0, len(calls))
	for _, call := range calls {
		wrapped = append(wrapped, aggregate3Call{
			Target:       call.To,
			AllowFailure: true,
			CallData:     call.Data,
		})
	}

	data, err := parsed.Pack("aggregate3", wrapped)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate3: %w", err)
	}
	return data, nil
}

func decodeAggregate3(resp []byte, wantLen int) ([]Result, error) {
	parsed, err := multicall3Instance()
	if err != nil {
		return nil, fmt.Errorf("parse multicall abi: %w", err)
	}

	values, err := parsed.Unpack("aggregate3", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack aggregate3: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("aggregate3 return size %d", len(values))
	}

	decoded := *abi.ConvertType(values[0], new([]aggregate3Result)).(*[]aggregate3Result)
	if len(decoded) != wantLen {
		return nil, fmt.Errorf("aggregate3 returned %d results for %d calls", len(decoded), wantLen)
	}

	results := make([]Result, len(decoded))
	for i, r := range decoded {
		if !r.Success {
			results[i] = Result{Err: ErrCallFailed}
			continue
		}
		results[i] = Result{Data: r.ReturnData}
	}
	return results, nil
}
