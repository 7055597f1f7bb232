// Package store opens the persistence backend selected by configuration.
//
// Every backend stores key records and daily usage counters behind the
// composite Store interface. When a Redis URL is configured the usage
// counters move to Redis while key records stay in the primary backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/logger"
	"github.com/dmitrymomot/keymeter/pkg/mongo"
	"github.com/dmitrymomot/keymeter/pkg/pg"
	"github.com/dmitrymomot/keymeter/pkg/redis"
	"github.com/dmitrymomot/keymeter/pkg/usage"
	"github.com/dmitrymomot/keymeter/store/memory"
	mongostore "github.com/dmitrymomot/keymeter/store/mongo"
	"github.com/dmitrymomot/keymeter/store/postgres"
	"github.com/dmitrymomot/keymeter/store/redisledger"
	"github.com/dmitrymomot/keymeter/store/sqlite"
)

// Supported STORAGE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Store persists key records and usage counters.
type Store interface {
	keys.Store
	usage.Ledger

	// Ping reports whether every underlying connection is usable.
	Ping(ctx context.Context) error
	// Close releases every underlying connection.
	Close(ctx context.Context) error
}

type Config struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`

	SQLite   sqlite.Config
	Postgres pg.Config
	Mongo    mongo.Config
	Redis    redis.Config
}

// Open connects to the configured backend and, when enabled, the Redis
// usage ledger.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (Store, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(logger.Component("store"))

	primary, err := openPrimary(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if !cfg.Redis.Enabled() {
		return primary, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		_ = primary.Close(ctx)
		return nil, err
	}
	log.InfoContext(ctx, "usage counters stored in redis")

	return &splitStore{
		Store:  primary,
		ledger: redisledger.New(client, cfg.Redis.KeyPrefix),
		ping:   redis.Healthcheck(client),
		close:  func(context.Context) error { return client.Close() },
	}, nil
}

func openPrimary(ctx context.Context, cfg Config, log *slog.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	log = log.With(slog.String("driver", driver))

	var (
		s   Store
		err error
	)
	switch driver {
	case DriverSQLite, "":
		s, err = sqlite.Open(ctx, cfg.SQLite)
	case DriverPostgres:
		s, err = postgres.Open(ctx, cfg.Postgres, log)
	case DriverMongo:
		s, err = mongostore.Open(ctx, cfg.Mongo)
	case DriverMemory:
		log.WarnContext(ctx, "in-memory storage: keys and usage are lost on restart")
		s = memory.New()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "storage opened")
	return s, nil
}

// splitStore keeps keys in the primary backend and counters in Redis.
type splitStore struct {
	Store
	ledger *redisledger.Ledger
	ping   func(context.Context) error
	close  func(context.Context) error
}

func (s *splitStore) IncrementAndGet(ctx context.Context, key string, day usage.Day) (int64, error) {
	return s.ledger.IncrementAndGet(ctx, key, day)
}

func (s *splitStore) Count(ctx context.Context, key string, day usage.Day) (int64, error) {
	return s.ledger.Count(ctx, key, day)
}

func (s *splitStore) Ping(ctx context.Context) error {
	return errors.Join(s.Store.Ping(ctx), s.ping(ctx))
}

func (s *splitStore) Close(ctx context.Context) error {
	return errors.Join(s.close(ctx), s.Store.Close(ctx))
}
