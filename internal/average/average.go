// Package average computes the rolling daily simple moving average.
//
// The computation is a pure function of its inputs: the same window, period,
// field and live price always yield the same result, so it is safe to call
// repeatedly against an unchanged window on every intraday bar close.
package average

import (
	"errors"
	"fmt"
	"math"

	"daily-sma/internal/model"
)

var (
	// ErrInsufficientWindow is returned when the window holds fewer bars
	// than the period. No bar is read in that case.
	ErrInsufficientWindow = errors.New("window shorter than period")

	// ErrInvalidResult is returned when the computed average is not finite.
	ErrInvalidResult = errors.New("computed average is not finite")
)

// InvalidSampleError reports a missing or non-finite contributing sample.
// Offset 0 is the live price; offsets 1..period-1 are closed daily bars.
// A single corrupt sample invalidates the entire average — skipping it
// would silently change the divisor's meaning.
type InvalidSampleError struct {
	Offset int
}

func (e *InvalidSampleError) Error() string {
	if e.Offset == 0 {
		return "invalid sample: live price at offset 0"
	}
	return fmt.Sprintf("invalid sample: bar at offset %d", e.Offset)
}

// Compute returns the daily SMA as it would look if today's bar closed right
// now: the live intraday price is the newest term, followed by the field
// value of the period-1 most recent closed daily bars.
func Compute(w *model.BarWindow, period int, field model.PriceField, livePrice float64) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("invalid period %d", period)
	}
	if w == nil || w.Len() < period {
		have := 0
		if w != nil {
			have = w.Len()
		}
		return 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientWindow, have, period)
	}

	if !finite(livePrice) {
		return 0, &InvalidSampleError{Offset: 0}
	}

	sum := livePrice
	for off := 1; off < period; off++ {
		bar := w.At(off)
		if bar == nil {
			return 0, &InvalidSampleError{Offset: off}
		}
		v := bar.Price(field)
		if !finite(v) {
			return 0, &InvalidSampleError{Offset: off}
		}
		sum += v
	}

	avg := sum / float64(period)
	if !finite(avg) {
		return 0, ErrInvalidResult
	}
	return avg, nil
}

// ComputeClosed returns the daily SMA over the period most recent closed
// bars only, with no live term. This is the lagging variant frozen at the
// last daily close.
func ComputeClosed(w *model.BarWindow, period int, field model.PriceField) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("invalid period %d", period)
	}
	if w == nil || w.Len() < period {
		have := 0
		if w != nil {
			have = w.Len()
		}
		return 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientWindow, have, period)
	}

	sum := 0.0
	for off := 0; off < period; off++ {
		bar := w.At(off)
		if bar == nil {
			return 0, &InvalidSampleError{Offset: off}
		}
		v := bar.Price(field)
		if !finite(v) {
			return 0, &InvalidSampleError{Offset: off}
		}
		sum += v
	}

	avg := sum / float64(period)
	if !finite(avg) {
		return 0, ErrInvalidResult
	}
	return avg, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
