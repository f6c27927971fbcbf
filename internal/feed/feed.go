// Package feed consumes live market events for one symbol from Redis
// PubSub: intraday ticks, intraday bar closes, and daily bar closes.
//
// Channels (published by the market-data side of the deployment):
//
//	tick:{symbol}      {"price": 123.45, "ts": "..."}   forming-bar updates
//	bar:close:{symbol} {"ts": "..."}                    intraday bar closed
//	bar:1d:{symbol}    model.Bar JSON                   daily bar closed
//
// The feed also acts as the live price provider: it maintains the forming
// daily bar from ticks and serves the configured price field from it.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sync"
	"time"

	"daily-sma/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// EventKind discriminates feed events.
type EventKind int

const (
	// EventIntradayClose signals that a bar on the consuming (intraday)
	// timeframe closed — time to recompute and publish.
	EventIntradayClose EventKind = iota

	// EventDailyBar carries a newly closed daily bar that extends the
	// lookback window.
	EventDailyBar
)

// Event is one feed occurrence delivered to the engine loop.
type Event struct {
	Kind EventKind
	Bar  *model.Bar // set for EventDailyBar
	TS   time.Time
}

// Feed subscribes to the symbol's Redis channels and emits Events.
type Feed struct {
	client *goredis.Client
	symbol string

	mu      sync.RWMutex
	forming *model.Bar // today's in-progress bar built from ticks
}

// New creates a Feed for the given symbol.
func New(client *goredis.Client, symbol string) *Feed {
	return &Feed{client: client, symbol: symbol}
}

// CurrentPrice returns the requested field of the forming daily bar, or
// NaN while no tick has been observed yet.
func (f *Feed) CurrentPrice(field model.PriceField) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.forming == nil {
		return math.NaN()
	}
	return f.forming.Price(field)
}

// Run subscribes and dispatches until ctx is cancelled. Malformed payloads
// are logged and dropped — they never stop the feed.
func (f *Feed) Run(ctx context.Context, out chan<- Event) error {
	tickCh := "tick:" + f.symbol
	closeCh := "bar:close:" + f.symbol
	dailyCh := "bar:1d:" + f.symbol

	sub := f.client.Subscribe(ctx, tickCh, closeCh, dailyCh)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Printf("[feed] %s: subscribed to %s, %s, %s", f.symbol, tickCh, closeCh, dailyCh)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			switch msg.Channel {
			case tickCh:
				f.onTick(msg.Payload)
			case closeCh:
				f.emit(ctx, out, Event{Kind: EventIntradayClose, TS: parseTS(msg.Payload)})
			case dailyCh:
				bar := f.onDailyBar(msg.Payload)
				if bar != nil {
					f.emit(ctx, out, Event{Kind: EventDailyBar, Bar: bar, TS: bar.Day})
				}
			}
		}
	}
}

func (f *Feed) emit(ctx context.Context, out chan<- Event, ev Event) {
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

func (f *Feed) onTick(payload string) {
	var tick struct {
		Price float64   `json:"price"`
		TS    time.Time `json:"ts"`
	}
	if err := json.Unmarshal([]byte(payload), &tick); err != nil {
		log.Printf("[feed] %s: bad tick payload: %v", f.symbol, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forming == nil {
		day := tick.TS.UTC().Truncate(24 * time.Hour)
		f.forming = &model.Bar{
			Symbol: f.symbol,
			Day:    day,
			Open:   tick.Price,
			High:   tick.Price,
			Low:    tick.Price,
			Close:  tick.Price,
		}
		return
	}
	if tick.Price > f.forming.High {
		f.forming.High = tick.Price
	}
	if tick.Price < f.forming.Low {
		f.forming.Low = tick.Price
	}
	f.forming.Close = tick.Price
}

// onDailyBar parses a closed daily bar and resets the forming bar — a new
// session starts from the next tick.
func (f *Feed) onDailyBar(payload string) *model.Bar {
	var bar model.Bar
	if err := json.Unmarshal([]byte(payload), &bar); err != nil {
		log.Printf("[feed] %s: bad daily bar payload: %v", f.symbol, err)
		return nil
	}

	f.mu.Lock()
	f.forming = nil
	f.mu.Unlock()
	return &bar
}

func parseTS(payload string) time.Time {
	var ev struct {
		TS time.Time `json:"ts"`
	}
	if err := json.Unmarshal([]byte(payload), &ev); err == nil && !ev.TS.IsZero() {
		return ev.TS
	}
	return time.Now().UTC()
}
