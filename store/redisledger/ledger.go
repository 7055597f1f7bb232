// Package redisledger keeps daily usage counters in Redis.
//
// Each (key, day) pair is a plain integer under
// "{prefix}:usage:{day}:{api_key}" and is incremented with INCR, which is
// atomic on the server. Counters are never expired here; retention is left
// to the operator.
package redisledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/keymeter/pkg/usage"
)

// Ledger implements usage.Ledger on Redis.
type Ledger struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Ledger writing keys under prefix. An empty prefix writes
// bare "usage:..." keys.
func New(client redis.UniversalClient, prefix string) *Ledger {
	if prefix != "" {
		prefix += ":"
	}
	return &Ledger{client: client, prefix: prefix}
}

func (l *Ledger) counterKey(key string, day usage.Day) string {
	return l.prefix + "usage:" + string(day) + ":" + key
}

func (l *Ledger) IncrementAndGet(ctx context.Context, key string, day usage.Day) (int64, error) {
	if key == "" {
		return 0, usage.ErrBlankKey
	}
	if day == "" {
		return 0, usage.ErrInvalidDay
	}

	n, err := l.client.Incr(ctx, l.counterKey(key, day)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: increment usage: %w", err)
	}
	return n, nil
}

func (l *Ledger) Count(ctx context.Context, key string, day usage.Day) (int64, error) {
	n, err := l.client.Get(ctx, l.counterKey(key, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis: read usage: %w", err)
	}
	return n, nil
}
