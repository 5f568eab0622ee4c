// Package redis reserves slugs in Redis.
//
// [Open] connects a [github.com/redis/go-redis/v9] client from a [Config]
// with retries, and [Store] implements autoslug.Store on top of it: every
// slug in use is a key holding its owner's id, claimed atomically with
// SETNX by [Store.Reserve].
//
// # Configuration
//
//	REDIS_URL               - redis:// or rediss:// URL (required)
//	REDIS_KEY_PREFIX        - Reservation key prefix (default: autoslug)
//	REDIS_RESERVATION_TTL   - Reservation lifetime, 0 keeps forever (default: 0s)
//	REDIS_POOL_SIZE         - Maximum connections (default: 10)
//	REDIS_RETRY_ATTEMPTS    - Connection attempts (default: 3)
//	REDIS_RETRY_INTERVAL    - Base retry interval (default: 5s)
//
// # Usage
//
//	client, err := redis.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redis.NewStore(client, redis.WithPrefix(cfg.Prefix))
//	field, err := autoslug.New("slug", autoslug.PopulateFrom("title"),
//		autoslug.Unique(), autoslug.WithStore(store))
//
//	s, err := field.Compute(ctx, rec)
//	q, err := field.Query(rec, s)
//	if err := store.Reserve(ctx, q, rec.ID); errors.Is(err, redis.ErrSlugReserved) {
//		// lost the race, compute again
//	}
package redis
