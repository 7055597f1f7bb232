package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PingTimeout bounds a single readiness probe.
const PingTimeout = 2 * time.Second

// Healthcheck returns a readiness probe for the pool. It also fails when
// every pooled connection is busy and a new one cannot be acquired in time.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, PingTimeout)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
