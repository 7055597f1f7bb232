package redis

import "time"

type Config struct {
	// ConnectionURL has the form "redis://:password@localhost:6379/0".
	// Empty keeps usage counters in the primary store.
	ConnectionURL string `env:"USAGE_REDIS_URL"`

	RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	// ConnectTimeout bounds the whole connect loop.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// KeyPrefix namespaces every key written by keymeter.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"keymeter"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
