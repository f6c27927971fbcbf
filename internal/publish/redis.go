// Package publish delivers computed average values to their sinks: the
// Redis latest-value key + PubSub channel, and connected WebSocket clients.
package publish

import (
	"context"
	"log"
	"time"

	"daily-sma/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const latestTTL = 30 * time.Minute

// Redis publishes values as SET latest + PUBLISH in one pipeline.
type Redis struct {
	client *goredis.Client
}

// NewRedis creates a Redis publisher over an existing client. The client
// is owned by the caller.
func NewRedis(client *goredis.Client) *Redis {
	return &Redis{client: client}
}

// SetValue writes the value. Failures are logged, never propagated — the
// engine's control flow does not depend on the sink.
func (p *Redis) SetValue(ctx context.Context, v model.AverageValue) {
	data := string(v.JSON())

	pipe := p.client.Pipeline()
	pipe.Set(ctx, v.LatestKey(), data, latestTTL)
	pipe.Publish(ctx, v.PubSubChannel(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[publish] redis write failed for %s: %v", v.Symbol, err)
	}
}

// Close is a no-op: the Redis client is shared and closed by its owner.
func (p *Redis) Close() error { return nil }

// Fanout publishes to every sink in order.
type Fanout []model.Publisher

func (f Fanout) SetValue(ctx context.Context, v model.AverageValue) {
	for _, p := range f {
		p.SetValue(ctx, v)
	}
}

func (f Fanout) Close() error {
	var firstErr error
	for _, p := range f {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
