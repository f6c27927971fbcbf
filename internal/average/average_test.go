package average

import (
	"errors"
	"math"
	"testing"
	"time"

	"daily-sma/internal/model"
)

// window builds a bar window from close prices given oldest → newest, so
// the last value lands at offset 0.
func window(closes ...float64) *model.BarWindow {
	bars := make([]*model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = &model.Bar{
			Symbol: "TEST",
			Day:    time.Date(2026, time.August, 1+i, 0, 0, 0, 0, time.UTC),
			Open:   c, High: c, Low: c, Close: c,
		}
	}
	return model.NewBarWindow(bars, nil)
}

func assertAvg(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.0001 {
		t.Errorf("average = %.6f, want %.6f", got, want)
	}
}

func TestCompute_LiveTermPlusClosedBars(t *testing.T) {
	// live 10, offsets 1 and 2 hold 8 and 9: (10+8+9)/3 = 9.0
	w := window(9, 8, 123)

	got, err := Compute(w, 3, model.FieldClose, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	assertAvg(t, got, 9.0)
}

func TestCompute_Idempotent(t *testing.T) {
	w := window(9, 8, 123)

	first, err1 := Compute(w, 3, model.FieldClose, 10)
	second, err2 := Compute(w, 3, model.FieldClose, 10)
	if err1 != nil || err2 != nil {
		t.Fatalf("Compute: %v / %v", err1, err2)
	}
	if first != second {
		t.Errorf("repeated compute diverged: %v vs %v", first, second)
	}
	if w.Len() != 3 {
		t.Errorf("window mutated: Len = %d, want 3", w.Len())
	}
}

func TestCompute_InsufficientWindow(t *testing.T) {
	w := window(1, 2, 3)

	_, err := Compute(w, 5, model.FieldClose, 10)
	if !errors.Is(err, ErrInsufficientWindow) {
		t.Fatalf("err = %v, want ErrInsufficientWindow", err)
	}

	_, err = Compute(nil, 5, model.FieldClose, 10)
	if !errors.Is(err, ErrInsufficientWindow) {
		t.Fatalf("nil window err = %v, want ErrInsufficientWindow", err)
	}
}

func TestCompute_RejectsNonPositivePeriod(t *testing.T) {
	w := window(1, 2, 3)
	for _, p := range []int{0, -1} {
		if _, err := Compute(w, p, model.FieldClose, 10); err == nil {
			t.Errorf("period %d: expected error", p)
		}
	}
}

func TestCompute_BadLivePricePoisons(t *testing.T) {
	w := window(1, 2, 3)
	for _, live := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Compute(w, 3, model.FieldClose, live)
		var sampleErr *InvalidSampleError
		if !errors.As(err, &sampleErr) {
			t.Fatalf("live=%v: err = %v, want InvalidSampleError", live, err)
		}
		if sampleErr.Offset != 0 {
			t.Errorf("live=%v: offset = %d, want 0", live, sampleErr.Offset)
		}
	}
}

func TestCompute_BadBarSamplePoisons(t *testing.T) {
	// period 4 reads offsets 1..3; poison each in turn
	for poison := 1; poison <= 3; poison++ {
		w := window(4, 3, 2, 1)
		w.At(poison).Close = math.NaN()

		_, err := Compute(w, 4, model.FieldClose, 10)
		var sampleErr *InvalidSampleError
		if !errors.As(err, &sampleErr) {
			t.Fatalf("poison offset %d: err = %v, want InvalidSampleError", poison, err)
		}
		if sampleErr.Offset != poison {
			t.Errorf("poison offset %d: reported offset %d", poison, sampleErr.Offset)
		}
	}
}

func TestCompute_NilBarHole(t *testing.T) {
	bars := []*model.Bar{
		{Close: 3}, nil, {Close: 1},
	}
	w := model.NewBarWindow(bars, nil)

	_, err := Compute(w, 3, model.FieldClose, 10)
	var sampleErr *InvalidSampleError
	if !errors.As(err, &sampleErr) {
		t.Fatalf("err = %v, want InvalidSampleError", err)
	}
	if sampleErr.Offset != 1 {
		t.Errorf("offset = %d, want 1", sampleErr.Offset)
	}
}

func TestCompute_OverflowResultRejected(t *testing.T) {
	// individual samples are finite but the sum overflows to +Inf
	w := window(1.7e308, 5)

	_, err := Compute(w, 2, model.FieldClose, 1.7e308)
	if !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("err = %v, want ErrInvalidResult", err)
	}
}

func TestCompute_FieldSelection(t *testing.T) {
	bars := []*model.Bar{
		{Open: 1, High: 2, Low: 0, Close: 1},
		{Open: 10, High: 12, Low: 8, Close: 11},
		{Open: 5, High: 5, Low: 5, Close: 5},
	}
	w := model.NewBarWindow(bars, nil)

	// typical of offset 1 bar = (12+8+11)/3; (9 + 31/3) / 2
	got, err := Compute(w, 2, model.FieldTypical, 9)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	assertAvg(t, got, (9+31.0/3.0)/2)
}

func TestComputeClosed_NoLiveTerm(t *testing.T) {
	w := window(8, 9, 10)

	got, err := ComputeClosed(w, 3, model.FieldClose)
	if err != nil {
		t.Fatalf("ComputeClosed: %v", err)
	}
	assertAvg(t, got, 9.0)
}

func TestComputeClosed_ReadsOffsetZero(t *testing.T) {
	w := window(2, 4)
	w.At(0).Close = math.NaN()

	_, err := ComputeClosed(w, 2, model.FieldClose)
	var sampleErr *InvalidSampleError
	if !errors.As(err, &sampleErr) {
		t.Fatalf("err = %v, want InvalidSampleError", err)
	}
	if sampleErr.Offset != 0 {
		t.Errorf("offset = %d, want 0", sampleErr.Offset)
	}
}
