package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// AverageValue is one published SMA sample: the daily moving average as it
// would look if today's bar closed right now.
type AverageValue struct {
	Symbol string    `json:"symbol"`
	Period int       `json:"period"`
	Field  string    `json:"field"` // price field name, e.g. "close"
	Value  float64   `json:"value"`
	Live   bool      `json:"live"` // true when the newest term is the live intraday price
	TS     time.Time `json:"ts"`   // bar-close event time that produced this value
}

// Name returns the display name, e.g. "SMA_20".
func (v *AverageValue) Name() string {
	return "SMA_" + strconv.Itoa(v.Period)
}

// LatestKey returns the Redis key holding the most recent value:
// "sma:latest:{symbol}".
func (v *AverageValue) LatestKey() string {
	return "sma:latest:" + v.Symbol
}

// PubSubChannel returns the Redis PubSub channel: "pub:sma:{symbol}".
func (v *AverageValue) PubSubChannel() string {
	return "pub:sma:" + v.Symbol
}

// JSON returns the JSON-encoded value.
func (v *AverageValue) JSON() []byte {
	data, _ := json.Marshal(v)
	return data
}
