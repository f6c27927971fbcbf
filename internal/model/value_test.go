package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAverageValue_NamesAndKeys(t *testing.T) {
	v := AverageValue{Symbol: "SPY", Period: 20, Field: "close", Value: 512.33}

	if got := v.Name(); got != "SMA_20" {
		t.Errorf("Name = %q, want SMA_20", got)
	}
	if got := v.LatestKey(); got != "sma:latest:SPY" {
		t.Errorf("LatestKey = %q", got)
	}
	if got := v.PubSubChannel(); got != "pub:sma:SPY" {
		t.Errorf("PubSubChannel = %q", got)
	}
}

func TestAverageValue_JSON(t *testing.T) {
	v := AverageValue{
		Symbol: "SPY", Period: 20, Field: "close",
		Value: 512.33, Live: true,
		TS: time.Date(2026, time.August, 21, 20, 0, 0, 0, time.UTC),
	}

	var got AverageValue
	if err := json.Unmarshal(v.JSON(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != v {
		t.Errorf("round trip changed value: %+v", got)
	}
}
