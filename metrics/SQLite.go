package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite is a Sink that stores events in a SQLite database. Every
// SQLite Sink belongs to a run, identified by a random UUID, so that
// several runs can share one database.
type SQLite struct {
	path  string
	runID string

	mu sync.Mutex
	db *sql.DB
}

// Run describes a training run recorded in a SQLite database
type Run struct {
	ID      string
	Started time.Time
	Config  string
}

// OpenSQLite opens, and if needed creates, the database at path and
// registers a new run described by config.
func OpenSQLite(ctx context.Context, path, config string) (*SQLite, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}

	s := &SQLite{path: path, runID: uuid.NewString(), db: db}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, config)
		VALUES (?, ?, ?)
	`, s.runID, time.Now().UTC().Format(time.RFC3339Nano), config)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openSQLite: could not register run: %w", err)
	}

	return s, nil
}

// openDB opens the database at path and creates its tables
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("openDB: sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("openDB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openDB: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openDB: could not create tables: %w", err)
	}
	return db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			config TEXT NOT NULL
		)`, `
		CREATE TABLE IF NOT EXISTS scalars (
			run_id TEXT NOT NULL REFERENCES runs(id),
			tag TEXT NOT NULL,
			step INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, tag, step)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// RunID returns the identifier of the run the Sink records
func (s *SQLite) RunID() string {
	return s.runID
}

// Scalar records an event. Recording the same tag and step twice keeps
// the latest value.
func (s *SQLite) Scalar(tag string, step int, value float64) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO scalars (run_id, tag, step, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, tag, step) DO UPDATE SET
			value = excluded.value
	`, s.runID, tag, step, value)
	if err != nil {
		return fmt.Errorf("scalar: could not record %v at step %v: %w", tag,
			step, err)
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLite) getDB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("sqlite store is closed")
	}
	return s.db, nil
}

// Reader reads recorded runs and events from a SQLite database
type Reader struct {
	db *sql.DB
}

// OpenReader opens the database at path for reading
func OpenReader(ctx context.Context, path string) (*Reader, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

// Runs returns every recorded run, oldest first
func (r *Reader) Runs(ctx context.Context) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, config FROM runs ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(&run.ID, &started, &run.Config); err != nil {
			return nil, fmt.Errorf("runs: %w", err)
		}
		if run.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("runs: invalid start time for run %v: %w",
				run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Series returns the events recorded with a tag in a run, ordered by
// step
func (r *Reader) Series(ctx context.Context, runID, tag string) ([]Point,
	error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT step, value FROM scalars
		WHERE run_id = ? AND tag = ?
		ORDER BY step
	`, runID, tag)
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.Step, &p.Value); err != nil {
			return nil, fmt.Errorf("series: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close closes the database
func (r *Reader) Close() error {
	return r.db.Close()
}
