// Package redis connects to Redis through go-redis/v9.
//
// Connect retries until the server answers PING or the configured timeout
// elapses. Healthcheck adapts a client to the readiness probe signature used
// by httpserver. Redis is optional for keymeter: Config.Enabled reports
// whether USAGE_REDIS_URL is set.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	if cfg.Enabled() {
//		client, err := redis.Connect(ctx, cfg)
//		...
//	}
package redis
