// Package ratelimiter implements a token bucket limiter for HTTP routes.
//
// It guards the unauthenticated endpoints of keymeter, key issuance in
// particular, where the daily quota does not apply yet:
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//
//	r.With(ratelimiter.Middleware(bucket, clientip.KeyFunc, onLimited)).Post("/keys/create", create)
//
// Buckets live in process memory, so every replica throttles independently.
package ratelimiter
