// Package poslog reads and writes the structured position log: an
// append-only, line-oriented record of account holdings over time. The most
// recent entry serves as the last-resort source for portfolio summary
// queries, and the history feeds the dashboard equity curve.
//
// Line format:
//
//	2025-12-24 03:54:44,584 - Positions: [{"symbol":"00700",...}]
package poslog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"tiger-trader/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// tailLines bounds how much of the file the latest-snapshot query reads.
const tailLines = 100

var lineRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),\d+ - Positions: (.+)$`)

// Snapshot is one parsed position log entry.
type Snapshot struct {
	Timestamp time.Time
	Positions []model.Position
}

// Log is an append-only position log backed by one file.
type Log struct {
	mu   sync.Mutex
	path string
}

// New creates a position log at path, creating parent directories.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("poslog: mkdir: %w", err)
	}
	return &Log{path: path}, nil
}

// LogPositions appends one snapshot line.
func (l *Log) LogPositions(ts time.Time, positions []model.Position) error {
	if positions == nil {
		positions = []model.Position{}
	}
	payload, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("poslog: marshal: %w", err)
	}
	line := fmt.Sprintf("%s,%03d - Positions: %s\n",
		ts.Format(timeLayout), ts.Nanosecond()/1e6, payload)

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("poslog: open: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("poslog: write: %w", err)
	}
	return nil
}

// ParseLine parses one log line. Returns nil for lines that do not match
// the format or whose JSON payload is malformed; callers skip those.
func ParseLine(line string) *Snapshot {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	ts, err := time.ParseInLocation(timeLayout, m[1], time.Local)
	if err != nil {
		return nil
	}
	var positions []model.Position
	if err := json.Unmarshal([]byte(m[2]), &positions); err != nil {
		return nil
	}
	return &Snapshot{Timestamp: ts, Positions: positions}
}

// Latest returns the most recent parseable snapshot, scanning only the tail
// of the file. Returns nil when the file is missing or holds no valid entry.
func (l *Log) Latest() (*Snapshot, error) {
	lines, err := l.readAll()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	start := len(lines) - tailLines
	if start < 0 {
		start = 0
	}
	for i := len(lines) - 1; i >= start; i-- {
		if snap := ParseLine(lines[i]); snap != nil {
			return snap, nil
		}
	}
	return nil, nil
}

// Since returns every parseable snapshot at or after the given time, in
// file order. Malformed lines are skipped silently.
func (l *Log) Since(since time.Time) ([]Snapshot, error) {
	lines, err := l.readAll()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snaps []Snapshot
	for _, line := range lines {
		if snap := ParseLine(line); snap != nil && !snap.Timestamp.Before(since) {
			snaps = append(snaps, *snap)
		}
	}
	return snaps, nil
}

// History returns per-snapshot aggregates over the lookback window,
// deduplicated to one point per minute, for the dashboard equity curve.
func (l *Log) History(days int) ([]model.PortfolioSnapshot, error) {
	snaps, err := l.Since(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	var out []model.PortfolioSnapshot
	seen := make(map[time.Time]bool)
	for _, s := range snaps {
		key := s.Timestamp.Truncate(time.Minute)
		if seen[key] {
			continue
		}
		seen[key] = true
		mv := Aggregate(s.Positions)
		out = append(out, model.PortfolioSnapshot{
			Timestamp:   s.Timestamp,
			TotalEquity: mv,
			MarketValue: mv,
		})
	}
	return out, nil
}

// PositionHistory returns the snapshots of one symbol over the lookback
// window.
func (l *Log) PositionHistory(symbol string, days int) ([]Snapshot, error) {
	snaps, err := l.Since(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	var out []Snapshot
	for _, s := range snaps {
		for _, p := range s.Positions {
			if p.Symbol == symbol {
				out = append(out, Snapshot{Timestamp: s.Timestamp, Positions: []model.Position{p}})
				break
			}
		}
	}
	return out, nil
}

// Aggregate sums market value across positions. Cash balance is not
// recoverable from the position log.
func Aggregate(positions []model.Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.MarketValue
	}
	return total
}

func (l *Log) readAll() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
