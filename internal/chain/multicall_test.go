package chain

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestDecodeAggregate3PartialFailure(t *testing.T) {
	parsed, err := multicall3Instance()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}

	// Five calls, the third reverted. The batch must still surface the
	// other four.
	encoded := []aggregate3Result{
		{Success: true, ReturnData: []byte{0x01}},
		{Success: true, ReturnData: []byte{0x02}},
		{Success: false},
		{Success: true, ReturnData: []byte{0x04}},
		{Success: true, ReturnData: []byte{0x05}},
	}

	resp, err := parsed.Methods["aggregate3"].Outputs.Pack(encoded)
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	results, err := decodeAggregate3(resp, 5)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("len = %d, want 5", len(results))
	}

	for i, want := range []bool{true, true, false, true, true} {
		if results[i].Ok() != want {
			t.Fatalf("result %d ok = %v, want %v", i, results[i].Ok(), want)
		}
	}
	if !errors.Is(results[2].Err, ErrCallFailed) {
		t.Fatalf("result 2 err = %v, want ErrCallFailed", results[2].Err)
	}
	if string(results[3].Data) != "\x04" {
		t.Fatalf("result 3 data = %x", results[3].Data)
	}
}

func TestDecodeAggregate3LengthMismatch(t *testing.T) {
	parsed, err := multicall3Instance()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}

	resp, err := parsed.Methods["aggregate3"].Outputs.Pack([]aggregate3Result{{Success: true}})
	if err != nil {
		t.Fatalf("pack outputs: %v", err)
	}

	if _, err := decodeAggregate3(resp, 2); err == nil {
		t.Fatal("expected error on result count mismatch")
	}
}

func TestPackAggregate3(t *testing.T) {
	calls := []Call{
		{To: common.HexToAddress("0x1"), Data: []byte{0xde, 0xad}},
		{To: common.HexToAddress("0x2"), Data: []byte{0xbe, 0xef}},
	}

	data, err := packAggregate3(calls)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(data) < 4 {
		t.Fatalf("packed data too short: %d bytes", len(data))
	}
}

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("your app has exceeded its rate limit"), true},
		{errors.New("too many concurrent requests"), true},
		{errors.New("execution reverted"), false},
		{errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		if got := IsRateLimited(tc.err); got != tc.want {
			t.Fatalf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
