// Package postgres stores keys and usage counters in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/pg"
	"github.com/dmitrymomot/keymeter/pkg/usage"
	"github.com/dmitrymomot/keymeter/store/postgres/migrations"
)

var ErrInvalidRecord = errors.New("postgres: stored record is invalid")

// Store implements keys.Store and usage.Ledger on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects, applies migrations and returns a Store owning the pool.
func Open(ctx context.Context, cfg pg.Config, log *slog.Logger) (*Store, error) {
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

// New wraps an already migrated pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Insert(ctx context.Context, rec keys.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (api_key, plan, is_active, created_at) VALUES ($1, $2, $3, $4)`,
		rec.Key, string(rec.Plan), rec.Active, rec.CreatedAt.UTC())
	if pg.IsDuplicateKeyError(err) {
		return keys.ErrKeyExists
	}
	if err != nil {
		return fmt.Errorf("postgres: insert key: %w", err)
	}
	return nil
}

func (s *Store) EnsureExists(ctx context.Context, key string, createdAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (api_key, plan, is_active, created_at) VALUES ($1, 'free', TRUE, $2)
		 ON CONFLICT (api_key) DO NOTHING`,
		key, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("postgres: ensure key: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (keys.Record, error) {
	var (
		plan string
		rec  = keys.Record{Key: key}
	)
	err := s.pool.QueryRow(ctx,
		`SELECT plan, is_active, created_at FROM api_keys WHERE api_key = $1`, key,
	).Scan(&plan, &rec.Active, &rec.CreatedAt)
	if pg.IsNotFoundError(err) {
		return keys.Record{}, keys.ErrNotFound
	}
	if err != nil {
		return keys.Record{}, fmt.Errorf("postgres: get key: %w", err)
	}

	if rec.Plan, err = keys.ParsePlan(plan); err != nil {
		return keys.Record{}, errors.Join(ErrInvalidRecord, err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func (s *Store) UpgradeToPro(ctx context.Context, key string, createdAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (api_key, plan, is_active, created_at) VALUES ($1, 'pro', TRUE, $2)
		 ON CONFLICT (api_key) DO UPDATE SET plan = 'pro', is_active = TRUE`,
		key, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("postgres: upgrade key: %w", err)
	}
	return nil
}

func (s *Store) SetActive(ctx context.Context, key string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET is_active = $2 WHERE api_key = $1`, key, active)
	if err != nil {
		return fmt.Errorf("postgres: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return keys.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementAndGet(ctx context.Context, key string, day usage.Day) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO usage_counters (api_key, day, count) VALUES ($1, $2, 1)
		 ON CONFLICT (api_key, day) DO UPDATE SET count = usage_counters.count + 1
		 RETURNING count`,
		key, day.Start(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: increment usage: %w", err)
	}
	return count, nil
}

func (s *Store) Count(ctx context.Context, key string, day usage.Day) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT count FROM usage_counters WHERE api_key = $1 AND day = $2`,
		key, day.Start(),
	).Scan(&count)
	if pg.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: read usage: %w", err)
	}
	return count, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return pg.Healthcheck(s.pool)(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}
