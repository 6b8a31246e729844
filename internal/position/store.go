// Package position persists the overlay's last on-screen position.
package position

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/resilience"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// Point is a window position in screen pixels.
type Point struct {
	X, Y int
}

// Store is a small sqlite-backed record of the window position.
type Store struct {
	db    *sql.DB
	retry resilience.RetryConfig
}

// Open creates or opens the store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "empty position db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStoreFailed, "create state dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStoreFailed, "open position db")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initDB(db); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeStoreFailed, "init position db")
	}
	return &Store{db: db, retry: resilience.DefaultRetryConfig()}, nil
}

func initDB(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=2000;",
		`CREATE TABLE IF NOT EXISTS window_position (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the saved position. ok is false when nothing was saved yet.
func (s *Store) Load(ctx context.Context) (p Point, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT x, y FROM window_position WHERE id = 1`)
	switch err := row.Scan(&p.X, &p.Y); {
	case errors.Is(err, sql.ErrNoRows):
		return Point{}, false, nil
	case err != nil:
		return Point{}, false, apperrors.Wrap(err, apperrors.CodeStoreFailed, "load position")
	}
	return p, true, nil
}

// Save records p, retrying transient lock contention.
func (s *Store) Save(ctx context.Context, p Point) error {
	err := resilience.Retry(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO window_position (id, x, y, updated_at) VALUES (1, ?, ?, datetime('now'))
			ON CONFLICT(id) DO UPDATE SET x = excluded.x, y = excluded.y, updated_at = excluded.updated_at`,
			p.X, p.Y)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeStoreFailed, "save position")
		}
		return nil
	})
	if err != nil {
		trace.Logger(ctx).Warn("position not saved", "x", p.X, "y", p.Y, "error", err)
	}
	return err
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }
