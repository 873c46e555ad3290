// Package store persists interval sets.
// Named sets live in DuckDB (queryable, insertion order kept).
// Parsed interval files can be snapshotted as gob files (fast, pure Go).
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/itree/internal/itree"
)

// Store manages a DuckDB connection holding named interval sets.
type Store struct {
	db   *sql.DB
	path string
}

// SetInfo summarizes a stored interval set.
type SetInfo struct {
	Name  string
	Count int64
	Min   uint64
	Max   uint64
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS intervals (
		set_name VARCHAR,
		seq BIGINT,
		start_pos UBIGINT,
		end_pos UBIGINT,
		payload VARCHAR,
		PRIMARY KEY (set_name, seq)
	)`)
	return err
}

// WriteSet replaces the named set with items, keeping their order.
// Items are bulk-inserted with the DuckDB Appender.
func (s *Store) WriteSet(name string, items []itree.Item[string]) error {
	ctx := context.Background()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DELETE FROM intervals WHERE set_name = ?", name); err != nil {
		return fmt.Errorf("clear set %q: %w", name, err)
	}
	if len(items) == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "intervals")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, it := range items {
		if err := appender.AppendRow(name, int64(i), it.Left, it.Right, it.Data); err != nil {
			return fmt.Errorf("append interval %d: %w", i, err)
		}
	}

	return appender.Flush()
}

// LoadSet returns the named set in insertion order.
// An unknown set yields an empty slice.
func (s *Store) LoadSet(name string) ([]itree.Item[string], error) {
	rows, err := s.db.Query(`SELECT start_pos, end_pos, payload
		FROM intervals
		WHERE set_name = ?
		ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query set %q: %w", name, err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// DeleteSet removes the named set.
func (s *Store) DeleteSet(name string) error {
	_, err := s.db.Exec("DELETE FROM intervals WHERE set_name = ?", name)
	return err
}

// ListSets returns a summary of every stored set, sorted by name.
func (s *Store) ListSets() ([]SetInfo, error) {
	rows, err := s.db.Query(`SELECT set_name, count(*), min(start_pos), max(end_pos)
		FROM intervals
		GROUP BY set_name
		ORDER BY set_name`)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []SetInfo
	for rows.Next() {
		var si SetInfo
		if err := rows.Scan(&si.Name, &si.Count, &si.Min, &si.Max); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sets: %w", err)
	}
	return sets, nil
}

// QueryOverlapsSQL filters the named set with a plain SQL scan. It serves
// as an oracle for tree queries and returns rows ordered by start, then
// insertion order.
func (s *Store) QueryOverlapsSQL(name string, ql, qr uint64, inclusive bool) ([]itree.Item[string], error) {
	cond := "start_pos < ? AND ? < end_pos"
	if inclusive {
		cond = "start_pos <= ? AND ? <= end_pos"
	}

	rows, err := s.db.Query(`SELECT start_pos, end_pos, payload
		FROM intervals
		WHERE set_name = ? AND `+cond+`
		ORDER BY start_pos, seq`, name, qr, ql)
	if err != nil {
		return nil, fmt.Errorf("query overlaps: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// scanItems scans (start, end, payload) rows.
func scanItems(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]itree.Item[string], error) {
	var items []itree.Item[string]
	for rows.Next() {
		var it itree.Item[string]
		if err := rows.Scan(&it.Left, &it.Right, &it.Data); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intervals: %w", err)
	}
	return items, nil
}
