// Package sqlite stores keys and usage counters in a local SQLite file
// through the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

var (
	ErrEmptyPath     = errors.New("sqlite: db path cannot be empty")
	ErrOpen          = errors.New("sqlite: failed to open database")
	ErrSchema        = errors.New("sqlite: failed to initialize schema")
	ErrInvalidRecord = errors.New("sqlite: stored record is invalid")
)

type Config struct {
	Path        string        `env:"DB_PATH" envDefault:"keymeter.db"`    // Path of the database file, or ":memory:".
	BusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"` // BusyTimeout is how long to wait for locks.
}

const schema = `
CREATE TABLE IF NOT EXISTS api_keys (
	api_key    TEXT PRIMARY KEY,
	plan       TEXT NOT NULL DEFAULT 'free',
	is_active  INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS usage_counters (
	api_key TEXT NOT NULL,
	day     TEXT NOT NULL,
	count   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (api_key, day)
);
`

// Store implements keys.Store and usage.Ledger.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database and applies the schema.
// A single connection serializes writers; every mutation is one statement,
// which keeps concurrent increments exact.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, errors.Join(ErrOpen, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrOpen, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrSchema, err)
	}

	return &Store{db: db}, nil
}

func dsn(cfg Config) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "synchronous(NORMAL)")
	if cfg.Path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

func (s *Store) Insert(ctx context.Context, rec keys.Record) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (api_key, plan, is_active, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (api_key) DO NOTHING`,
		rec.Key, string(rec.Plan), rec.Active, formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: insert key: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return keys.ErrKeyExists
	}
	return nil
}

func (s *Store) EnsureExists(ctx context.Context, key string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (api_key, plan, is_active, created_at) VALUES (?, 'free', 1, ?)
		 ON CONFLICT (api_key) DO NOTHING`,
		key, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("sqlite: ensure key: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (keys.Record, error) {
	var (
		plan      string
		active    bool
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT plan, is_active, created_at FROM api_keys WHERE api_key = ?`, key,
	).Scan(&plan, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return keys.Record{}, keys.ErrNotFound
	}
	if err != nil {
		return keys.Record{}, fmt.Errorf("sqlite: get key: %w", err)
	}

	p, err := keys.ParsePlan(plan)
	if err != nil {
		return keys.Record{}, errors.Join(ErrInvalidRecord, err)
	}
	return keys.Record{
		Key:       key,
		Plan:      p,
		Active:    active,
		CreatedAt: parseTime(createdAt),
	}, nil
}

func (s *Store) UpgradeToPro(ctx context.Context, key string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (api_key, plan, is_active, created_at) VALUES (?, 'pro', 1, ?)
		 ON CONFLICT (api_key) DO UPDATE SET plan = 'pro', is_active = 1`,
		key, formatTime(createdAt))
	if err != nil {
		return fmt.Errorf("sqlite: upgrade key: %w", err)
	}
	return nil
}

func (s *Store) SetActive(ctx context.Context, key string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = ? WHERE api_key = ?`, active, key)
	if err != nil {
		return fmt.Errorf("sqlite: set active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return keys.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementAndGet(ctx context.Context, key string, day usage.Day) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO usage_counters (api_key, day, count) VALUES (?, ?, 1)
		 ON CONFLICT (api_key, day) DO UPDATE SET count = count + 1
		 RETURNING count`,
		key, string(day),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: increment usage: %w", err)
	}
	return count, nil
}

func (s *Store) Count(ctx context.Context, key string, day usage.Day) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM usage_counters WHERE api_key = ? AND day = ?`, key, string(day),
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: read usage: %w", err)
	}
	return count, nil
}

// Ping checks that the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close(ctx context.Context) error {
	_, _ = s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads created_at; rows written before the column was filled
// hold an empty string and map to the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
