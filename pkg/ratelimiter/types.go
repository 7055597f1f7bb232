package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Config defines a token bucket.
type Config struct {
	// Capacity is the burst size. Zero disables the limiter.
	Capacity int `env:"KEY_CREATE_BURST" envDefault:"10"`
	// RefillRate is the number of tokens added per interval.
	RefillRate int `env:"KEY_CREATE_REFILL" envDefault:"1"`
	// RefillInterval is how often tokens are added.
	RefillInterval time.Duration `env:"KEY_CREATE_REFILL_INTERVAL" envDefault:"1m"`
}

// Enabled reports whether the configuration asks for a limiter.
func (c Config) Enabled() bool {
	return c.Capacity > 0
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	case c.RefillRate <= 0:
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	case c.RefillInterval <= 0:
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// Result describes the bucket after a request.
type Result struct {
	Limit     int
	Remaining int // negative when the request was denied
	ResetAt   time.Time
}

// Allowed reports whether the request fit in the bucket.
func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying, measured from now.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(0, r.ResetAt.Sub(now))
}

// Store keeps bucket state.
type Store interface {
	// ConsumeTokens refills the bucket for key, takes tokens from it and
	// returns what is left. A negative remainder means the request is denied
	// and nothing was taken.
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (remaining int, resetAt time.Time, err error)

	// Reset forgets the bucket for key.
	Reset(ctx context.Context, key string) error
}
