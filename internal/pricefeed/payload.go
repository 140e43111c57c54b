package pricefeed

import (
	"encoding/json"
	"math"
	"strconv"
)

// flexNumber decodes a JSON value that may arrive as a number or a numeric
// string. Anything unparseable decodes to 0.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	*f = 0
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
			*f = flexNumber(v)
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		*f = flexNumber(v)
	}
	return nil
}

type pairPayload struct {
	PriceUSD flexNumber `json:"priceUsd"`
	Volume   struct {
		H24 flexNumber `json:"h24"`
	} `json:"volume"`
	FDV       flexNumber `json:"fdv"`
	Liquidity struct {
		USD flexNumber `json:"usd"`
	} `json:"liquidity"`
}

type feedResponse struct {
	Pair  *pairPayload  `json:"pair"`
	Pairs []pairPayload `json:"pairs"`
}
