package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// PingTimeout bounds a single readiness probe.
const PingTimeout = 2 * time.Second

// Healthcheck returns a readiness probe for client.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, PingTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrUnreachable, err)
		}
		return nil
	}
}
