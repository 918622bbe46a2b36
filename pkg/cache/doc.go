// Package cache provides a small TTL cache with memory and Redis backends.
//
// The email service caches two things: auth-service session lookups, keyed by
// a hash of the session cookie, and the Stripe token pack catalog. Both go
// through a Loader so concurrent misses hit the upstream once.
//
//	sessions := cache.NewLoader[auth.Session](cache.NewMemory[auth.Session](30*time.Second, time.Minute))
//	s, err := sessions.Load(ctx, key, 0, fetch)
package cache
