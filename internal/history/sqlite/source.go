// Package sqlite provides a SQLite-backed daily bar history source.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"daily-sma/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Source reads (and appends) daily bars from a local SQLite database.
type Source struct {
	db *sql.DB
}

// New opens the database with WAL mode and bootstraps the schema.
func New(dbPath string) (*Source, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened %s", dbPath)
	return &Source{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_bars (
			symbol TEXT    NOT NULL,
			day    INTEGER NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume INTEGER,
			PRIMARY KEY (symbol, day)
		);
	`)
	return err
}

// DailyBars reads the daily bar series for [start, now), ordered by day
// ascending, and wraps it in a BarWindow.
func (s *Source) DailyBars(ctx context.Context, symbol string, start time.Time) (*model.BarWindow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, day, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = ? AND day >= ?
		ORDER BY day ASC
	`, symbol, start.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query daily_bars: %w", err)
	}
	defer rows.Close()

	var bars []*model.Bar
	for rows.Next() {
		var b model.Bar
		var dayUnix int64
		var volume sql.NullInt64
		if err := rows.Scan(&b.Symbol, &dayUnix, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan daily_bars: %w", err)
		}
		b.Day = time.Unix(dayUnix, 0).UTC()
		b.Volume = volume.Int64
		bars = append(bars, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows daily_bars: %w", err)
	}

	return model.NewBarWindow(bars, nil), nil
}

// WriteBar upserts a single closed daily bar. Used to persist bars arriving
// on the live feed so restarts find them in history.
func (s *Source) WriteBar(ctx context.Context, b *model.Bar) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO daily_bars (symbol, day, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.Symbol, b.Day.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume)
	if err != nil {
		return fmt.Errorf("sqlite insert daily_bar: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Source) Close() error {
	return s.db.Close()
}
