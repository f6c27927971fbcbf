package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-sma/config"
	"daily-sma/internal/logger"
	"daily-sma/internal/markethours"
	"daily-sma/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	slogger := logger.Init("smaengine", logger.ParseLevel(cfg.LogLevel))
	slogger.Info("starting daily SMA engine",
		slog.String("symbol", cfg.Symbol),
		slog.Int("period", cfg.Period),
		slog.String("field", cfg.PriceField),
		slog.String("history_source", cfg.HistorySource),
	)
	log.Printf("[main] %s", markethours.StatusString(time.Now()))

	svc, err := service.New(cfg)
	if err != nil {
		log.Fatalf("[main] init failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("[main] fatal: %v", err)
	}
}
