// Package loader establishes the lookback window of daily bars.
//
// Given a target bar count N it picks a start date far enough in the past,
// requests the series from the history source, and widens the calendar span
// on shortfall — holidays, weekends and exchange closures mean a span of N
// calendar days rarely contains N trading-day bars. The retry loop is
// bounded and grows the span by the exact deficit each round: every missing
// bar implies at least one more calendar day is needed, so this converges
// faster than a fixed step while tolerating arbitrary holiday clustering.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"daily-sma/internal/markethours"
	"daily-sma/internal/model"
)

// DefaultMaxAttempts bounds the backfill retry loop.
const DefaultMaxAttempts = 5

// SourceError wraps a source-level failure (request raised, nil window).
// Source failures are never retried — they are not a data-sparsity problem
// and blind retries would mask them.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return "history source failure: " + e.Err.Error() }
func (e *SourceError) Unwrap() error { return e.Err }

// InsufficientDataError reports that the retry budget was exhausted without
// reaching the target bar count.
type InsufficientDataError struct {
	Have     int
	Need     int
	Attempts int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient daily bars: have %d, need %d after %d attempts",
		e.Have, e.Need, e.Attempts)
}

// Loader loads the lookback window from a history source.
type Loader struct {
	source      model.HistorySource
	symbol      string
	maxAttempts int
}

// New creates a Loader. maxAttempts <= 0 selects DefaultMaxAttempts.
func New(source model.HistorySource, symbol string, maxAttempts int) *Loader {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Loader{source: source, symbol: symbol, maxAttempts: maxAttempts}
}

// Load returns a window holding at least period daily bars ending at now.
//
// Superseded partial windows are released before the next request, and no
// window is retained on any failure path.
func (l *Loader) Load(ctx context.Context, period int, now time.Time) (*model.BarWindow, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid period %d: must be positive", period)
	}

	log.Printf("[loader] %s: loading %d daily bars (calendar estimate: %d days)",
		l.symbol, period, markethours.CalendarDaysForBars(now, period))

	daysBack := period
	have := 0
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		start := now.AddDate(0, 0, -daysBack)

		window, err := l.source.DailyBars(ctx, l.symbol, start)
		if err != nil {
			return nil, &SourceError{Err: err}
		}
		if window == nil {
			return nil, &SourceError{Err: errors.New("source returned no window")}
		}

		have = window.Len()
		if have >= period {
			log.Printf("[loader] %s: %d daily bars over %d calendar days (attempt %d/%d)",
				l.symbol, have, daysBack, attempt, l.maxAttempts)
			return window, nil
		}

		// Short window — discard it before widening the span.
		shortfall := period - have
		window.Release()
		log.Printf("[loader] %s: short %d bars (have %d, need %d), widening lookback %d → %d days",
			l.symbol, shortfall, have, period, daysBack, daysBack+shortfall)
		daysBack += shortfall
	}

	return nil, &InsufficientDataError{Have: have, Need: period, Attempts: l.maxAttempts}
}
