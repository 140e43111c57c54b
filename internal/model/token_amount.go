package model

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// TokenAmount is an exact token quantity: a raw integer plus the token's
// decimals exponent. Conversion to float or USD is lossy and one-directional.
type TokenAmount struct {
	raw      *big.Int
	decimals uint8
}

// AmountFromRaw wraps a raw integer quantity. A nil raw is treated as zero.
func AmountFromRaw(raw *big.Int, decimals uint8) TokenAmount {
	if raw == nil {
		raw = new(big.Int)
	}
	return TokenAmount{raw: new(big.Int).Set(raw), decimals: decimals}
}

// ZeroAmount returns the zero quantity for a token with the given decimals.
func ZeroAmount(decimals uint8) TokenAmount {
	return TokenAmount{raw: new(big.Int), decimals: decimals}
}

// AmountFromFormatted parses a decimal string ("123.45") into an exact
// amount. The fractional part is padded or truncated to exactly decimals
// digits before conversion.
func AmountFromFormatted(value string, decimals uint8) (TokenAmount, error) {
	whole, fraction, _ := strings.Cut(strings.TrimSpace(value), ".")
	if whole == "" {
		whole = "0"
	}

	d := int(decimals)
	if len(fraction) < d {
		fraction += strings.Repeat("0", d-len(fraction))
	} else {
		fraction = fraction[:d]
	}

	raw, ok := new(big.Int).SetString(whole+fraction, 10)
	if !ok {
		return TokenAmount{}, fmt.Errorf("invalid amount %q", value)
	}
	return TokenAmount{raw: raw, decimals: decimals}, nil
}

// Raw returns a copy of the underlying integer quantity.
func (a TokenAmount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a TokenAmount) Decimals() uint8 {
	return a.decimals
}

func (a TokenAmount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

func (a TokenAmount) GreaterThan(other TokenAmount) bool {
	a.ensureSameDecimals(other)
	return a.Raw().Cmp(other.Raw()) > 0
}

func (a TokenAmount) Add(other TokenAmount) TokenAmount {
	a.ensureSameDecimals(other)
	return TokenAmount{raw: new(big.Int).Add(a.Raw(), other.Raw()), decimals: a.decimals}
}

func (a TokenAmount) Sub(other TokenAmount) TokenAmount {
	a.ensureSameDecimals(other)
	return TokenAmount{raw: new(big.Int).Sub(a.Raw(), other.Raw()), decimals: a.decimals}
}

// Float converts to a float64 display value. Lossy above ~2^53.
func (a TokenAmount) Float() float64 {
	f, _ := new(big.Float).SetInt(a.Raw()).Float64()
	return f / math.Pow10(int(a.decimals))
}

// USD values the amount at the given per-token price.
func (a TokenAmount) USD(pricePerToken float64) float64 {
	return a.Float() * pricePerToken
}

// Formatted renders the amount with up to precision fractional digits,
// trailing zeros trimmed. Formatted with precision >= decimals round-trips
// exactly through AmountFromFormatted.
func (a TokenAmount) Formatted(precision int) string {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.decimals)), nil)
	whole, remainder := new(big.Int).QuoRem(a.Raw(), divisor, new(big.Int))

	if remainder.Sign() == 0 {
		return whole.String()
	}

	fraction := fmt.Sprintf("%0*s", a.decimals, remainder.String())
	if precision < len(fraction) {
		fraction = fraction[:precision]
	}
	fraction = strings.TrimRight(fraction, "0")
	if fraction == "" {
		return whole.String()
	}
	return whole.String() + "." + fraction
}

// MarshalJSON emits the exact raw quantity as a decimal string alongside
// the decimals exponent and a human-readable rendering.
func (a TokenAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Raw       string `json:"raw"`
		Decimals  uint8  `json:"decimals"`
		Formatted string `json:"formatted"`
	}{
		Raw:       a.Raw().String(),
		Decimals:  a.decimals,
		Formatted: a.Formatted(int(a.decimals)),
	})
}

// Mismatched decimals is a programming error, not a runtime condition.
func (a TokenAmount) ensureSameDecimals(other TokenAmount) {
	if a.decimals != other.decimals {
		panic(fmt.Sprintf("token amount decimals mismatch: %d != %d", a.decimals, other.decimals))
	}
}
