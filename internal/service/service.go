// Package service is the top-level orchestrator: it wires config, history
// source, study, live feed, publishers and metrics, and runs the single
// event loop that drives the study.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"daily-sma/config"
	"daily-sma/internal/average"
	"daily-sma/internal/feed"
	sqlitehist "daily-sma/internal/history/sqlite"
	"daily-sma/internal/history/smartapi"
	"daily-sma/internal/loader"
	"daily-sma/internal/metrics"
	"daily-sma/internal/model"
	"daily-sma/internal/publish"
	"daily-sma/internal/study"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// Service wires all engine dependencies and owns their lifecycle.
type Service struct {
	cfg  *config.Config
	prom *metrics.Metrics

	rdb      *goredis.Client
	history  model.HistorySource
	sqlStore *sqlitehist.Source // non-nil for the sqlite source: persists live daily bars

	fd     *feed.Feed
	hub    *publish.Hub
	study  *study.Study
	events chan feed.Event
}

// New connects to Redis, opens the configured history source and builds
// the study. Nothing is loaded yet — Run does that.
func New(cfg *config.Config) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		prom:   metrics.New(),
		events: make(chan feed.Event, 1024),
	}

	svc.rdb = goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[service] connected to redis at %s", cfg.RedisAddr)

	switch cfg.HistorySource {
	case "smartapi":
		svc.history = smartapi.New(smartapi.Config{
			APIKey:     cfg.SmartAPIKey,
			ClientCode: cfg.SmartAPIClientCode,
			Password:   cfg.SmartAPIPassword,
			TOTPSecret: cfg.SmartAPITOTPSecret,
		})
	default:
		src, err := sqlitehist.New(cfg.SQLitePath)
		if err != nil {
			svc.rdb.Close()
			return nil, err
		}
		svc.history = src
		svc.sqlStore = src
	}

	svc.fd = feed.New(svc.rdb, cfg.Symbol)
	svc.hub = publish.NewHub(func(n int) {
		svc.prom.WSClients.Set(float64(n))
	})
	sinks := publish.Fanout{publish.NewRedis(svc.rdb), svc.hub}

	svc.study = study.New(study.Config{
		Symbol:          cfg.Symbol,
		Period:          cfg.Period,
		Field:           cfg.Field(),
		LiveSample:      cfg.LiveSample,
		MaxLoadAttempts: cfg.MaxLoadAttempts,
	}, &countingSource{src: svc.history, attempts: svc.prom.LoadAttempts}, svc.fd, sinks, nil)

	return svc, nil
}

// Run starts all subsystems and blocks until ctx is cancelled.
//
// An initialization failure does not abort the process: the study stays in
// its failed state and simply never publishes, leaving the diagnostic trail
// in logs and metrics.
func (svc *Service) Run(ctx context.Context) error {
	go metrics.Serve(ctx, svc.cfg.MetricsAddr)
	go svc.hub.Run(ctx, svc.cfg.WSAddr)

	if err := svc.study.Initialize(ctx); err != nil {
		svc.prom.LoadFailures.WithLabelValues(failureStage(err)).Inc()
		log.Printf("[service] initialization failed — engine stays up, publishing nothing: %v", err)
	}
	svc.prom.WindowBars.Set(float64(svc.study.WindowLen()))

	go func() {
		if err := svc.fd.Run(ctx, svc.events); err != nil {
			log.Printf("[service] feed error: %v", err)
		}
	}()

	log.Printf("[service] ✅ running: %s SMA_%d(%s) state=%s",
		svc.cfg.Symbol, svc.cfg.Period, svc.cfg.PriceField, svc.study.State())

	for {
		select {
		case <-ctx.Done():
			svc.shutdown()
			return nil
		case ev := <-svc.events:
			svc.handle(ctx, ev)
		}
	}
}

// handle processes one feed event on the single engine goroutine.
func (svc *Service) handle(ctx context.Context, ev feed.Event) {
	switch ev.Kind {
	case feed.EventDailyBar:
		svc.study.OnDailyClose(ev.Bar)
		svc.prom.WindowBars.Set(float64(svc.study.WindowLen()))
		if svc.sqlStore != nil && ev.Bar != nil {
			if err := svc.sqlStore.WriteBar(ctx, ev.Bar); err != nil {
				log.Printf("[service] persist daily bar: %v", err)
			}
		}

	case feed.EventIntradayClose:
		if !svc.study.Ready() {
			return
		}
		start := time.Now()
		err := svc.study.OnBarClose(ctx)
		svc.prom.ComputeDur.Observe(time.Since(start).Seconds())
		svc.prom.ComputesTotal.Inc()
		if err != nil {
			svc.prom.ComputeSkips.WithLabelValues(skipReason(err)).Inc()
			return
		}
		svc.prom.PublishedTotal.Inc()
	}
}

func (svc *Service) shutdown() {
	log.Println("[service] shutdown signal received")
	svc.study.Teardown()
	svc.hub.Close()
	if err := svc.history.Close(); err != nil {
		log.Printf("[service] history close: %v", err)
	}
	svc.rdb.Close()
	log.Println("[service] shutdown complete")
}

// failureStage maps an initialization error to its metrics label.
func failureStage(err error) string {
	var srcErr *loader.SourceError
	var insufErr *loader.InsufficientDataError
	switch {
	case errors.As(err, &srcErr):
		return "source"
	case errors.As(err, &insufErr):
		return "sparsity"
	default:
		return "config"
	}
}

// skipReason maps a per-tick compute error to its metrics label.
func skipReason(err error) string {
	var sampleErr *average.InvalidSampleError
	switch {
	case errors.As(err, &sampleErr):
		return "sample"
	case errors.Is(err, average.ErrInvalidResult):
		return "result"
	case errors.Is(err, average.ErrInsufficientWindow):
		return "window"
	default:
		return "other"
	}
}

// countingSource decorates a history source with a request counter so the
// loader's retry behavior is visible in metrics.
type countingSource struct {
	src      model.HistorySource
	attempts prometheus.Counter
}

func (c *countingSource) DailyBars(ctx context.Context, symbol string, start time.Time) (*model.BarWindow, error) {
	c.attempts.Inc()
	return c.src.DailyBars(ctx, symbol, start)
}

func (c *countingSource) Close() error { return c.src.Close() }
