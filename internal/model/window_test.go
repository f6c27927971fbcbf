package model

import (
	"testing"
	"time"
)

func dayBar(day int, close float64) *Bar {
	return &Bar{
		Symbol: "TEST",
		Day:    time.Date(2026, time.August, day, 0, 0, 0, 0, time.UTC),
		Open:   close, High: close + 1, Low: close - 1, Close: close,
	}
}

func TestBarWindow_NewestFirst(t *testing.T) {
	w := NewBarWindow([]*Bar{dayBar(17, 1), dayBar(18, 2), dayBar(19, 3)}, nil)

	if w.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", w.Len())
	}
	if got := w.At(0).Close; got != 3 {
		t.Errorf("At(0).Close = %v, want 3 (newest)", got)
	}
	if got := w.At(2).Close; got != 1 {
		t.Errorf("At(2).Close = %v, want 1 (oldest)", got)
	}
	if w.At(3) != nil {
		t.Error("At(3): expected nil for out-of-range offset")
	}
	if w.At(-1) != nil {
		t.Error("At(-1): expected nil for negative offset")
	}
}

func TestBarWindow_AppendShiftsOffsets(t *testing.T) {
	w := NewBarWindow([]*Bar{dayBar(17, 1), dayBar(18, 2)}, nil)

	w.Append(dayBar(19, 3))

	if w.Len() != 3 {
		t.Fatalf("Len() = %d after append, want 3", w.Len())
	}
	if got := w.At(0).Close; got != 3 {
		t.Errorf("At(0).Close = %v after append, want 3", got)
	}
	// previous newest shifted to offset 1
	if got := w.At(1).Close; got != 2 {
		t.Errorf("At(1).Close = %v after append, want 2", got)
	}
}

func TestBarWindow_ReleaseRunsHookOnce(t *testing.T) {
	released := 0
	w := NewBarWindow([]*Bar{dayBar(17, 1)}, func() { released++ })

	w.Release()
	w.Release()

	if released != 1 {
		t.Errorf("release hook ran %d times, want 1", released)
	}
	if !w.Released() {
		t.Error("Released() = false after Release")
	}
	if w.Len() != 0 {
		t.Errorf("Len() = %d after Release, want 0", w.Len())
	}
}

func TestBarWindow_NilReceiverRelease(t *testing.T) {
	var w *BarWindow
	w.Release() // must not panic
}
