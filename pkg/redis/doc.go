// Package redis opens go-redis clients from environment configuration.
//
// Redis is optional for the email service: when REDIS_URL is set the session
// cache is shared through it and readiness includes a ping, otherwise the
// process keeps an in-memory cache.
//
//	if cfg.Redis.Enabled() {
//		client, err := redis.Open(ctx, cfg.Redis)
//		if err != nil {
//			return err
//		}
//		checks = append(checks, internal.WithReadinessCheck("redis", redis.Healthcheck(client)))
//	}
package redis
