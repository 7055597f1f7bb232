package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: USAGE_REDIS_URL is empty")
	ErrInvalidURL         = errors.New("redis: invalid connection URL")
	ErrNotReady           = errors.New("redis: server did not answer PING in time")
	ErrUnreachable        = errors.New("redis: usage ledger is unreachable")
)
