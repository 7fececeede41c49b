package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	written_at INTEGER NOT NULL
);
`

// SQLite is a Store backed by a single SQLite table.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("kvstore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kvstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kvstore: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (Record, bool, error) {
	var (
		value []byte
		nanos int64
	)
	err := s.conn.QueryRowContext(ctx, `SELECT value, written_at FROM kv WHERE key = ?`, key).Scan(&value, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return Record{Value: value, WrittenAt: time.Unix(0, nanos).UTC()}, true, nil
}

// Stat implements Store.
func (s *SQLite) Stat(ctx context.Context, key string) (time.Time, bool, error) {
	var nanos int64
	err := s.conn.QueryRowContext(ctx, `SELECT written_at FROM kv WHERE key = ?`, key).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("kvstore: stat %s: %w", key, err)
	}
	return time.Unix(0, nanos).UTC(), true, nil
}

// Put writes every record inside one transaction.
func (s *SQLite) Put(ctx context.Context, records map[string]Record) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kvstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kv (key, value, written_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			written_at = excluded.written_at
	`)
	if err != nil {
		return fmt.Errorf("kvstore: prepare put: %w", err)
	}
	defer stmt.Close()

	for key, rec := range records {
		if _, err := stmt.ExecContext(ctx, key, rec.Value, rec.WrittenAt.UnixNano()); err != nil {
			return fmt.Errorf("kvstore: put %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kvstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("kvstore: delete %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Verify *SQLite satisfies Store at compile time.
var _ Store = (*SQLite)(nil)
