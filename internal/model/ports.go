package model

import (
	"context"
	"time"
)

// ── Port Interfaces ──
// These interfaces decouple the engine core from concrete collaborators
// (SQLite, SmartAPI HTTP, Redis). Each implementation satisfies one or more.

// HistorySource serves daily bars for the lookback window.
type HistorySource interface {
	// DailyBars returns the daily bar series for [start, now), ordered
	// oldest→newest, wrapped in a BarWindow that releases the underlying
	// resource. A nil window without error is treated as a source failure
	// by the loader.
	DailyBars(ctx context.Context, symbol string, start time.Time) (*BarWindow, error)

	// Close releases underlying resources.
	Close() error
}

// LivePriceProvider serves the live/most-recent intraday price sample.
type LivePriceProvider interface {
	// CurrentPrice returns the live price for the configured field.
	// Returns NaN while no sample has been observed yet (transient
	// unavailability sentinel).
	CurrentPrice(field PriceField) float64
}

// Publisher is the sink the engine writes computed averages to.
type Publisher interface {
	// SetValue publishes a computed average. Fire-and-forget: failures are
	// logged by the implementation and never affect engine control flow.
	SetValue(ctx context.Context, v AverageValue)

	// Close releases underlying resources.
	Close() error
}

// Clock abstracts wall-clock access for deterministic tests.
type Clock interface {
	NowUTC() time.Time
}

// SystemClock is the real-time Clock.
type SystemClock struct{}

func (SystemClock) NowUTC() time.Time { return time.Now().UTC() }
