package model

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestAmountFormattedRoundTrip(t *testing.T) {
	cases := []struct {
		raw      string
		decimals uint8
	}{
		{"0", 18},
		{"1", 18},
		{"1000000000000000000", 18},
		{"1234567890123456789", 18},
		{"123450000", 6},
		{"999999999999999999999999", 18},
	}

	for _, tc := range cases {
		raw, _ := new(big.Int).SetString(tc.raw, 10)
		amount := AmountFromRaw(raw, tc.decimals)

		formatted := amount.Formatted(int(tc.decimals))
		back, err := AmountFromFormatted(formatted, tc.decimals)
		if err != nil {
			t.Fatalf("parse %q: %v", formatted, err)
		}
		if back.Raw().Cmp(raw) != 0 {
			t.Fatalf("round trip %s (dec %d): %q -> %s", tc.raw, tc.decimals, formatted, back.Raw())
		}
	}
}

func TestAmountFromFormattedPadsAndTruncates(t *testing.T) {
	amount, err := AmountFromFormatted("1.5", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.Raw().Int64() != 1500000 {
		t.Fatalf("padded raw = %s, want 1500000", amount.Raw())
	}

	amount, err = AmountFromFormatted("0.1234567891", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount.Raw().Int64() != 123456 {
		t.Fatalf("truncated raw = %s, want 123456", amount.Raw())
	}
}

func TestAmountFormattedTrimsPrecision(t *testing.T) {
	raw, _ := new(big.Int).SetString("1234567890123456789", 10)
	amount := AmountFromRaw(raw, 18)

	if got := amount.Formatted(4); got != "1.2345" {
		t.Fatalf("Formatted(4) = %q, want 1.2345", got)
	}

	whole := AmountFromRaw(big.NewInt(5000000), 6)
	if got := whole.Formatted(4); got != "5" {
		t.Fatalf("Formatted(4) = %q, want 5", got)
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := AmountFromRaw(big.NewInt(300), 6)
	b := AmountFromRaw(big.NewInt(200), 6)

	if got := a.Add(b).Raw().Int64(); got != 500 {
		t.Fatalf("Add = %d, want 500", got)
	}
	if got := a.Sub(b).Raw().Int64(); got != 100 {
		t.Fatalf("Sub = %d, want 100", got)
	}
	if !a.GreaterThan(b) {
		t.Fatal("300 should be greater than 200")
	}
	if a.IsZero() || !ZeroAmount(6).IsZero() {
		t.Fatal("IsZero misbehaved")
	}
}

func TestAmountMismatchedDecimalsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on decimals mismatch")
		}
	}()
	AmountFromRaw(big.NewInt(1), 18).Add(AmountFromRaw(big.NewInt(1), 6))
}

func TestAmountMarshalJSONCarriesQuantity(t *testing.T) {
	raw, _ := new(big.Int).SetString("1500000000000000000", 10)
	data, err := json.Marshal(AmountFromRaw(raw, 18))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"raw":"1500000000000000000","decimals":18,"formatted":"1.5"}`
	if string(data) != want {
		t.Fatalf("marshal = %s, want %s", data, want)
	}

	data, err = json.Marshal(ZeroAmount(6))
	if err != nil {
		t.Fatalf("marshal zero: %v", err)
	}
	if string(data) != `{"raw":"0","decimals":6,"formatted":"0"}` {
		t.Fatalf("marshal zero = %s", data)
	}
}

func TestAmountUSD(t *testing.T) {
	raw, _ := new(big.Int).SetString("2500000000000000000", 10)
	amount := AmountFromRaw(raw, 18)
	if got := amount.USD(4); got != 10 {
		t.Fatalf("USD = %v, want 10", got)
	}
}
