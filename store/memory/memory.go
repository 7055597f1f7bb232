// Package memory is the in-process storage backend. Data is lost on
// restart; it serves tests and STORAGE_DRIVER=memory.
package memory

import (
	"context"

	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

// Store combines keys.MemoryStore and usage.MemoryLedger.
type Store struct {
	*keys.MemoryStore
	ledger *usage.MemoryLedger
}

func New() *Store {
	return &Store{
		MemoryStore: keys.NewMemoryStore(),
		ledger:      usage.NewMemoryLedger(),
	}
}

func (s *Store) IncrementAndGet(ctx context.Context, key string, day usage.Day) (int64, error) {
	return s.ledger.IncrementAndGet(ctx, key, day)
}

func (s *Store) Count(ctx context.Context, key string, day usage.Day) (int64, error) {
	return s.ledger.Count(ctx, key, day)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }
