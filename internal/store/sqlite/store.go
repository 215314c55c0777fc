// Package sqlite persists trades and portfolio snapshots. The snapshot
// table is append-only and its most recent row is the Tier-2 cache for
// portfolio summary queries.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tiger-trader/internal/model"
)

// Store is a single-writer SQLite store with WAL journaling.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Open opens (or creates) the store, initializing WAL mode and the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer: the loop is the only writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", dbPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			action     TEXT    NOT NULL,
			quantity   INTEGER NOT NULL,
			price      REAL    NOT NULL,
			reason     TEXT,
			order_id   TEXT,
			status     TEXT,
			ts         INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
		CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts);

		CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			ts           INTEGER NOT NULL,
			total_equity REAL    NOT NULL,
			cash_balance REAL    NOT NULL,
			market_value REAL    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON portfolio_snapshots(ts);
	`)
	return err
}

// RecordTrade appends one trade record.
func (s *Store) RecordTrade(ctx context.Context, rec model.TradeRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (symbol, action, quantity, price, reason, order_id, status, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, string(rec.Action), rec.Quantity, rec.Price,
		rec.Reason, rec.OrderID, rec.Status, rec.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert trade: %w", err)
	}
	return nil
}

// RecentTrades returns the last limit trades, newest first.
func (s *Store) RecentTrades(ctx context.Context, limit int) ([]model.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, action, quantity, price, reason, order_id, status, ts
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	var trades []model.TradeRecord
	for rows.Next() {
		var t model.TradeRecord
		var action string
		var ts int64
		if err := rows.Scan(&t.ID, &t.Symbol, &action, &t.Quantity, &t.Price,
			&t.Reason, &t.OrderID, &t.Status, &ts); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		t.Action = model.Action(action)
		t.Timestamp = time.Unix(ts, 0).UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SaveSnapshot appends one portfolio snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.PortfolioSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolio_snapshots (ts, total_equity, cash_balance, market_value)
		 VALUES (?, ?, ?, ?)`,
		snap.Timestamp.Unix(), snap.TotalEquity, snap.CashBalance, snap.MarketValue)
	if err != nil {
		return fmt.Errorf("sqlite insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot. Returns sql.ErrNoRows
// when no snapshot exists yet.
func (s *Store) LatestSnapshot(ctx context.Context) (model.PortfolioSnapshot, error) {
	var snap model.PortfolioSnapshot
	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, ts, total_equity, cash_balance, market_value
		 FROM portfolio_snapshots ORDER BY id DESC LIMIT 1`).
		Scan(&snap.ID, &ts, &snap.TotalEquity, &snap.CashBalance, &snap.MarketValue)
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}
	snap.Timestamp = time.Unix(ts, 0).UTC()
	return snap, nil
}

// Snapshots returns up to limit snapshots ordered oldest first, for the
// dashboard equity curve.
func (s *Store) Snapshots(ctx context.Context, limit int) ([]model.PortfolioSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, total_equity, cash_balance, market_value
		 FROM (SELECT * FROM portfolio_snapshots ORDER BY id DESC LIMIT ?)
		 ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.PortfolioSnapshot
	for rows.Next() {
		var snap model.PortfolioSnapshot
		var ts int64
		if err := rows.Scan(&snap.ID, &ts, &snap.TotalEquity, &snap.CashBalance, &snap.MarketValue); err != nil {
			return nil, fmt.Errorf("sqlite scan snapshot: %w", err)
		}
		snap.Timestamp = time.Unix(ts, 0).UTC()
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
