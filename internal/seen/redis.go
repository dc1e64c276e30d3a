package seen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "hcjobs:seen:"

// Redis is a Cache shared across workers. Each key holds the first-seen
// unix time and is set with SETNX so concurrent runs agree on who saw a
// posting first.
type Redis struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedis wraps a connected client. A ttl of zero keeps keys forever.
func NewRedis(rdb redis.UniversalClient, ttl time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{rdb: rdb, ttl: ttl, prefix: prefix}
}

// FirstSeen implements Cache. Expiry is left to the key TTL.
func (r *Redis) FirstSeen(ctx context.Context, key string, _ time.Time) (time.Time, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("seen get: %w", err)
	}
	at, err := parseSeen(key, v)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// MarkSeen implements Cache
func (r *Redis) MarkSeen(ctx context.Context, key string, now time.Time) (bool, time.Time, error) {
	k := r.prefix + key

	created, err := r.rdb.SetNX(ctx, k, now.Unix(), r.ttl).Result()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("seen setnx: %w", err)
	}
	if created {
		return true, now, nil
	}

	v, err := r.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return r.MarkSeen(ctx, key, now)
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("seen get: %w", err)
	}

	at, err := parseSeen(key, v)
	if err != nil {
		return false, time.Time{}, err
	}
	return false, at, nil
}

func parseSeen(key, v string) (time.Time, error) {
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("seen value for %q: %w", key, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}
