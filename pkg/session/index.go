package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Index keeps one row per finished session in SQLite so history can be
// listed without walking the reports tree.
type Index struct {
	db *sql.DB
}

// ErrNoIndex is returned by OpenExistingIndex when no index file exists.
var ErrNoIndex = errors.New("session: no index")

// OpenIndex opens or creates the index database at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return openIndex(path)
}

// OpenExistingIndex opens the index at path for reading. It never creates
// the file; a missing index returns ErrNoIndex.
func OpenExistingIndex(path string) (*Index, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNoIndex, path)
	} else if err != nil {
		return nil, err
	}
	return openIndex(path)
}

func openIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

func (x *Index) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			start_time REAL NOT NULL,
			end_time REAL NOT NULL,
			duration REAL NOT NULL,
			blink_count INTEGER NOT NULL,
			productive_time INTEGER NOT NULL,
			distraction_count INTEGER NOT NULL,
			focus_score_total REAL NOT NULL,
			data_points INTEGER NOT NULL,
			avg_focus_score REAL NOT NULL,
			productivity_percentage REAL NOT NULL,
			report_dir TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time);`,
	}
	for _, stmt := range stmts {
		if _, err := x.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert stores rec, replacing any row with the same ID.
func (x *Index) Insert(ctx context.Context, rec Record, reportDir string) error {
	_, err := x.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, start_time, end_time, duration, blink_count, productive_time,
			distraction_count, focus_score_total, data_points, avg_focus_score, productivity_percentage, report_dir)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartTime,
		rec.EndTime,
		rec.Duration,
		rec.BlinkCount,
		rec.ProductiveTime,
		rec.DistractionCount,
		rec.FocusScoreTotal,
		rec.DataPoints,
		rec.AvgFocusScore,
		rec.ProductivityPercentage,
		reportDir,
	)
	return err
}

// List returns the most recent sessions in start order. limit <= 0 means all.
func (x *Index) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := x.db.QueryContext(ctx,
		`SELECT id, start_time, end_time, duration, blink_count, productive_time, distraction_count,
			focus_score_total, data_points, avg_focus_score, productivity_percentage
		 FROM (SELECT * FROM sessions ORDER BY start_time DESC LIMIT ?)
		 ORDER BY start_time ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.StartTime, &r.EndTime, &r.Duration, &r.BlinkCount,
			&r.ProductiveTime, &r.DistractionCount, &r.FocusScoreTotal, &r.DataPoints,
			&r.AvgFocusScore, &r.ProductivityPercentage); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
