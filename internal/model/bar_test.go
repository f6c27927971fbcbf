package model

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func TestBar_PriceFields(t *testing.T) {
	b := Bar{Open: 10, High: 12, Low: 8, Close: 11}

	assertClose(t, "close", b.Price(FieldClose), 11)
	assertClose(t, "open", b.Price(FieldOpen), 10)
	assertClose(t, "high", b.Price(FieldHigh), 12)
	assertClose(t, "low", b.Price(FieldLow), 8)
	// typical = (12+8+11)/3
	assertClose(t, "typical", b.Price(FieldTypical), 31.0/3.0)
	// median = (12+8)/2
	assertClose(t, "median", b.Price(FieldMedian), 10)
	// weighted = (12+8+2*11)/4
	assertClose(t, "weighted", b.Price(FieldWeighted), 10.5)
}

func TestParsePriceField(t *testing.T) {
	cases := []struct {
		in   string
		want PriceField
	}{
		{"close", FieldClose},
		{"Close", FieldClose},
		{"  WEIGHTED ", FieldWeighted},
		{"typical", FieldTypical},
		{"median", FieldMedian},
	}
	for _, c := range cases {
		got, err := ParsePriceField(c.in)
		if err != nil {
			t.Errorf("ParsePriceField(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParsePriceField(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	if _, err := ParsePriceField("vwap"); err == nil {
		t.Error("ParsePriceField(vwap): expected error")
	}
}
