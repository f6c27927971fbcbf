package smartapi

import (
	"encoding/json"
	"testing"
)

func TestParseCandles(t *testing.T) {
	data := json.RawMessage(`[
		["2026-08-20T00:00:00+05:30", 100.5, 103.0, 99.0, 102.25, 150000],
		["2026-08-21T00:00:00+05:30", 102.5, 104.0, 101.0, 103.5, 98000]
	]`)

	bars, err := parseCandles("SBIN-EQ", data)
	if err != nil {
		t.Fatalf("parseCandles: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}

	b := bars[1]
	if b.Symbol != "SBIN-EQ" {
		t.Errorf("Symbol = %q", b.Symbol)
	}
	if b.Open != 102.5 || b.High != 104.0 || b.Low != 101.0 || b.Close != 103.5 {
		t.Errorf("OHLC = %v/%v/%v/%v", b.Open, b.High, b.Low, b.Close)
	}
	if b.Volume != 98000 {
		t.Errorf("Volume = %d, want 98000", b.Volume)
	}
	if b.Day.Location().String() != "UTC" {
		t.Errorf("Day not normalized to UTC: %v", b.Day)
	}
}

func TestParseCandles_Empty(t *testing.T) {
	bars, err := parseCandles("SBIN-EQ", json.RawMessage(`[]`))
	if err != nil {
		t.Fatalf("parseCandles: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("got %d bars, want 0", len(bars))
	}
}

func TestParseCandles_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"short row", `[["2026-08-20T00:00:00+05:30", 100.5, 103.0]]`},
		{"bad timestamp", `[["yesterday", 100.5, 103.0, 99.0, 102.25, 150000]]`},
		{"numeric timestamp", `[[1755648000, 100.5, 103.0, 99.0, 102.25, 150000]]`},
		{"string price", `[["2026-08-20T00:00:00+05:30", "100.5", 103.0, 99.0, 102.25, 150000]]`},
		{"not an array", `{"candles": []}`},
	}
	for _, c := range cases {
		if _, err := parseCandles("SBIN-EQ", json.RawMessage(c.data)); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}
