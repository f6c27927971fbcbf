package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Bar represents a single closed daily OHLC bar for one symbol.
// Prices are float64 as delivered by history providers. Immutable once
// closed — the engine only ever holds read references.
type Bar struct {
	Symbol string    `json:"symbol"`
	Day    time.Time `json:"day"` // trading day (UTC, midnight-aligned)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	data, _ := json.Marshal(b)
	return data
}

// PriceField selects which price of a bar contributes to the average.
type PriceField int

const (
	FieldClose PriceField = iota
	FieldOpen
	FieldHigh
	FieldLow
	FieldTypical  // (H+L+C)/3
	FieldMedian   // (H+L)/2
	FieldWeighted // (H+L+2C)/4
)

var fieldNames = [...]string{"close", "open", "high", "low", "typical", "median", "weighted"}

func (f PriceField) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// ParsePriceField parses a config string into a PriceField.
func ParsePriceField(s string) (PriceField, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fieldNames {
		if n == name {
			return PriceField(i), nil
		}
	}
	return FieldClose, fmt.Errorf("unknown price field %q", s)
}

// Price extracts the configured price field from the bar, computing
// derived fields on demand.
func (b *Bar) Price(f PriceField) float64 {
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldTypical:
		return (b.High + b.Low + b.Close) / 3
	case FieldMedian:
		return (b.High + b.Low) / 2
	case FieldWeighted:
		return (b.High + b.Low + 2*b.Close) / 4
	default:
		return b.Close
	}
}
