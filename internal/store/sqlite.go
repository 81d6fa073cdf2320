// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Key-value rows carry an optional expiry; list rows are ordered by position

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite database. It is the
// durable default backend: WAL mode gives concurrent readers, and the
// head-pop is a single DELETE so each list entry is handed to exactly
// one caller.
type SQLiteStore struct {
	db     *sql.DB
	keeper *sql.Conn // pins an in-memory database for the store's lifetime
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite store at the given path.
// Parent directories are created if needed. Pass ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dsn := path
	inMemory := path == ":memory:"
	if inMemory {
		// A plain ":memory:" DSN gives every pooled connection its own
		// private database, so the schema created at open is invisible to
		// later connections. Name a shared in-memory database instead; the
		// random name keeps separate stores in one process isolated.
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var keeper *sql.Conn
	if inMemory {
		// A shared in-memory database is dropped when its last connection
		// closes. Hold one open until Close.
		keeper, err = db.Conn(context.Background())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("pinning in-memory database: %w", err)
		}
	}

	s := &SQLiteStore{db: db, keeper: keeper, logger: logger}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		s.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if err := s.createSchema(); err != nil {
		s.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER
		);

		CREATE TABLE IF NOT EXISTS list_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			list_key TEXT NOT NULL,
			pos REAL NOT NULL,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_list_entries_key_pos
			ON list_entries(list_key, pos);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM kv WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting key %s: %w", key, err)
	}

	if expiresAt.Valid && time.Now().UnixMilli() > expiresAt.Int64 {
		// Expired: reap lazily and report missing.
		if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			s.logger.Warn("failed to reap expired key", "key", key, "error", err)
		}
		return nil, ErrNotFound
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value, expires_at) VALUES (?, ?, NULL) ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = NULL",
		key, value)
	if err != nil {
		return fmt.Errorf("setting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UnixMilli()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("setting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE key LIKE ? || '%' AND (expires_at IS NULL OR expires_at > ?)",
		prefix, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("scanning keys with prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) ListPushHead(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO list_entries (list_key, pos, value) VALUES (?, COALESCE((SELECT MIN(pos) FROM list_entries WHERE list_key = ?), 0) - 1, ?)",
		key, key, value)
	if err != nil {
		return fmt.Errorf("pushing to head of %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ListPushTail(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO list_entries (list_key, pos, value) VALUES (?, COALESCE((SELECT MAX(pos) FROM list_entries WHERE list_key = ?), 0) + 1, ?)",
		key, key, value)
	if err != nil {
		return fmt.Errorf("pushing to tail of %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ListPopHead(ctx context.Context, key string) (string, error) {
	// Single-statement delete keeps the pop atomic per entry: two concurrent
	// pops can never return the same row.
	var value string
	err := s.db.QueryRowContext(ctx,
		"DELETE FROM list_entries WHERE id = (SELECT id FROM list_entries WHERE list_key = ? ORDER BY pos, id LIMIT 1) RETURNING value",
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEmptyList
	}
	if err != nil {
		return "", fmt.Errorf("popping head of %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) ListRange(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT value FROM list_entries WHERE list_key = ? ORDER BY pos, id", key)
	if err != nil {
		return nil, fmt.Errorf("ranging list %s: %w", key, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

func (s *SQLiteStore) ListLen(ctx context.Context, key string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM list_entries WHERE list_key = ?", key,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting list %s: %w", key, err)
	}
	return n, nil
}

// Close closes the underlying database. For an in-memory store this also
// releases the pinned connection, dropping the database.
func (s *SQLiteStore) Close() error {
	if s.keeper != nil {
		s.keeper.Close()
	}
	return s.db.Close()
}
