// Package study hosts the daily SMA overlay lifecycle: initialization loads
// the lookback window, every intraday bar-close event recomputes and
// publishes the average, and teardown releases the window.
//
// All entry points run on the single callback goroutine of the hosting
// environment — no locks needed. No failure escapes past this boundary:
// initialization errors end in StateFailed, per-tick errors are logged and
// the update skipped.
package study

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"daily-sma/internal/average"
	"daily-sma/internal/loader"
	"daily-sma/internal/model"
)

// State is the readiness of a study instance.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Period bounds for the configuration surface.
const (
	MinPeriod = 1
	MaxPeriod = 999
)

// Config is immutable for the lifetime of one study instance. A parameter
// change is modeled externally as Teardown + a fresh Initialize.
type Config struct {
	Symbol string
	Period int
	Field  model.PriceField

	// LiveSample selects the forward-looking variant: the live intraday
	// price is the newest term, with Period-1 closed daily bars behind it.
	// When false the average covers Period fully-closed bars.
	LiveSample bool

	// MaxLoadAttempts bounds the backfill retry loop (0 = loader default).
	MaxLoadAttempts int
}

// Validate rejects misconfiguration before any data is requested.
func (c Config) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol must not be empty")
	}
	if c.Period < MinPeriod || c.Period > MaxPeriod {
		return fmt.Errorf("period %d out of range [%d, %d]", c.Period, MinPeriod, MaxPeriod)
	}
	if c.Field.String() == "unknown" {
		return fmt.Errorf("invalid price field %d", c.Field)
	}
	return nil
}

// Study computes and publishes a daily SMA alongside intraday data.
type Study struct {
	cfg     Config
	history model.HistorySource
	live    model.LivePriceProvider
	pub     model.Publisher
	clock   model.Clock

	state  State
	window *model.BarWindow
}

// New creates a Study in StateUninitialized. A nil clock selects the
// system clock.
func New(cfg Config, history model.HistorySource, live model.LivePriceProvider, pub model.Publisher, clock model.Clock) *Study {
	if clock == nil {
		clock = model.SystemClock{}
	}
	return &Study{
		cfg:     cfg,
		history: history,
		live:    live,
		pub:     pub,
		clock:   clock,
	}
}

// State returns the current readiness state.
func (s *Study) State() State { return s.state }

// Ready reports whether bar-close events will produce values.
func (s *Study) Ready() bool { return s.state == StateReady }

// WindowLen returns the current daily bar count (0 when not ready).
func (s *Study) WindowLen() int {
	if s.window == nil {
		return 0
	}
	return s.window.Len()
}

// Initialize validates the configuration and loads the lookback window.
// On any failure the study ends in StateFailed and never publishes.
func (s *Study) Initialize(ctx context.Context) error {
	if s.state != StateUninitialized {
		return fmt.Errorf("initialize called in state %s", s.state)
	}

	if err := s.cfg.Validate(); err != nil {
		s.state = StateFailed
		log.Printf("[study] %s: misconfigured: %v", s.cfg.Symbol, err)
		return fmt.Errorf("study config: %w", err)
	}

	ld := loader.New(s.history, s.cfg.Symbol, s.cfg.MaxLoadAttempts)
	window, err := ld.Load(ctx, s.cfg.Period, s.clock.NowUTC())
	if err != nil {
		s.state = StateFailed
		var srcErr *loader.SourceError
		var insufErr *loader.InsufficientDataError
		switch {
		case errors.As(err, &srcErr):
			log.Printf("[study] %s: history source failed, giving up: %v", s.cfg.Symbol, err)
		case errors.As(err, &insufErr):
			log.Printf("[study] %s: data too sparse: %v", s.cfg.Symbol, err)
		default:
			log.Printf("[study] %s: load failed: %v", s.cfg.Symbol, err)
		}
		return err
	}

	s.window = window
	s.state = StateReady
	log.Printf("[study] %s: ready — SMA_%d over %s with %d daily bars",
		s.cfg.Symbol, s.cfg.Period, s.cfg.Field, window.Len())
	return nil
}

// OnBarClose recomputes the average for one intraday bar-close event and
// publishes it. No-op unless ready (returns nil). Per-tick failures
// (corrupt sample, non-finite result) discard this update only — the error
// is returned for observability, state and window are untouched, and the
// next event tries again from scratch.
func (s *Study) OnBarClose(ctx context.Context) error {
	if s.state != StateReady {
		return nil
	}

	var (
		avg float64
		err error
	)
	if s.cfg.LiveSample {
		livePrice := math.NaN()
		if s.live != nil {
			livePrice = s.live.CurrentPrice(s.cfg.Field)
		}
		avg, err = average.Compute(s.window, s.cfg.Period, s.cfg.Field, livePrice)
	} else {
		avg, err = average.ComputeClosed(s.window, s.cfg.Period, s.cfg.Field)
	}
	if err != nil {
		log.Printf("[study] %s: skipping update (window=%d): %v",
			s.cfg.Symbol, s.window.Len(), err)
		return err
	}

	s.pub.SetValue(ctx, model.AverageValue{
		Symbol: s.cfg.Symbol,
		Period: s.cfg.Period,
		Field:  s.cfg.Field.String(),
		Value:  avg,
		Live:   s.cfg.LiveSample,
		TS:     s.clock.NowUTC(),
	})
	return nil
}

// OnDailyClose extends the window with a newly closed daily bar. All
// newest-first offsets shift; the next OnBarClose averages over the
// shifted window.
func (s *Study) OnDailyClose(bar *model.Bar) {
	if s.state != StateReady || bar == nil {
		return
	}
	s.window.Append(bar)
	log.Printf("[study] %s: daily bar %s appended, window now %d bars",
		s.cfg.Symbol, bar.Day.Format("2006-01-02"), s.window.Len())
}

// Teardown releases the window and resets to StateUninitialized.
// Idempotent: safe to call when already torn down.
func (s *Study) Teardown() {
	if s.window != nil {
		s.window.Release()
		s.window = nil
	}
	if s.state != StateUninitialized {
		log.Printf("[study] %s: torn down", s.cfg.Symbol)
	}
	s.state = StateUninitialized
}
