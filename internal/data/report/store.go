package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// fixed width so timestamps sort as text
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store keeps analysis runs in SQLite so successive runs can be compared.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// RunSummary is one row of the recent-runs listing.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Bundles    int
	Failed     int
	Classes    int
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("report store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("report store path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create report directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite report store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite report store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun stores run with all its bundles in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run must have an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := saveRun(ctx, tx, run); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func saveRun(ctx context.Context, tx *sql.Tx, run *Run) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at_utc, finished_at_utc, roots) VALUES (?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), strings.Join(run.Roots, "\n"))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, b := range run.Bundles {
		res, err := tx.ExecContext(ctx, `
INSERT INTO bundles (run_id, package, property, format, path, typings, files, duration_ms, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, b.Package, b.Property, b.Format, b.Path, b.Typings, b.Files, b.DurationMS, b.Error)
		if err != nil {
			return fmt.Errorf("insert bundle %s: %w", b.Path, err)
		}
		bundleID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, e := range b.Exports {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO exports (bundle_id, name, kind, via) VALUES (?, ?, ?, ?)`,
				bundleID, e.Name, e.Kind, e.Via); err != nil {
				return fmt.Errorf("insert export %s: %w", e.Name, err)
			}
		}
		for _, c := range b.Classes {
			if err := saveClass(ctx, tx, bundleID, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveClass(ctx context.Context, tx *sql.Tx, bundleID int64, c Class) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO classes (bundle_id, name, file, line, base, dts) VALUES (?, ?, ?, ?, ?, ?)`,
		bundleID, c.Name, c.File, c.Line, c.Base, c.Dts)
	if err != nil {
		return fmt.Errorf("insert class %s: %w", c.Name, err)
	}
	classID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	insert := func(member string, decorators []Decorator) error {
		for _, d := range decorators {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO decorators (class_id, member, name, import, arg_count) VALUES (?, ?, ?, ?, ?)`,
				classID, member, d.Name, d.Import, len(d.Args)); err != nil {
				return fmt.Errorf("insert decorator %s: %w", d.Name, err)
			}
		}
		return nil
	}
	if err := insert("", c.Decorators); err != nil {
		return err
	}
	for _, m := range c.Members {
		if err := insert(m.Name, m.Decorators); err != nil {
			return err
		}
	}
	for i, p := range c.CtorParams {
		if err := insert("constructor:"+strconv.Itoa(i), p.Decorators); err != nil {
			return err
		}
	}
	return nil
}

// RecentRuns lists up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}

	query := `
SELECT r.id, r.started_at_utc, r.finished_at_utc,
  (SELECT COUNT(*) FROM bundles b WHERE b.run_id = r.id),
  (SELECT COUNT(*) FROM bundles b WHERE b.run_id = r.id AND b.error != ''),
  (SELECT COUNT(*) FROM classes c JOIN bundles b ON c.bundle_id = b.id WHERE b.run_id = r.id)
FROM runs r
ORDER BY r.started_at_utc DESC, r.id ASC
LIMIT ?`

	var rows *sql.Rows
	err := s.withRetry("list runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunSummary, 0)
	for rows.Next() {
		var (
			sum                 RunSummary
			startRaw, finishRaw string
		)
		if err := rows.Scan(&sum.ID, &startRaw, &finishRaw, &sum.Bundles, &sum.Failed, &sum.Classes); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if sum.StartedAt, err = parseTime(startRaw); err != nil {
			return nil, err
		}
		if sum.FinishedAt, err = parseTime(finishRaw); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return out, nil
}

// DecoratorUsage counts class decorators by name for one run.
func (s *Store) DecoratorUsage(ctx context.Context, runID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
SELECT d.name, COUNT(*)
FROM decorators d
JOIN classes c ON d.class_id = c.id
JOIN bundles b ON c.bundle_id = b.id
WHERE b.run_id = ? AND d.member = ''
GROUP BY d.name`, runID)
	if err != nil {
		return nil, fmt.Errorf("decorator usage: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

// Prune keeps the newest keep runs and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM runs WHERE id NOT IN (
  SELECT id FROM runs ORDER BY started_at_utc DESC, id ASC LIMIT ?
)`, keep)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}
