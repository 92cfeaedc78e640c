package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis parses a redis:// URL and verifies connectivity.
func ConnectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// CachedLookup memoizes successful geolocations in Redis.
// Redis errors degrade to a direct lookup; failures are never cached.
type CachedLookup struct {
	inner  GeoLookup
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

// NewCachedLookup wraps inner. log may be nil.
func NewCachedLookup(inner GeoLookup, rdb redis.UniversalClient, ttl time.Duration, log *slog.Logger) *CachedLookup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedLookup{inner: inner, rdb: rdb, ttl: ttl, prefix: "sessiond:geo:", log: log}
}

func (c *CachedLookup) Lookup(ctx context.Context, ip string) (Location, error) {
	key := c.prefix + ip

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var loc Location
		if jerr := json.Unmarshal(raw, &loc); jerr == nil {
			return loc, nil
		}
	case errors.Is(err, redis.Nil):
	default:
		c.log.Debug("geo.cache.get.fail", "err", err)
	}

	loc, err := c.inner.Lookup(ctx, ip)
	if err != nil {
		return Location{}, err
	}

	if b, jerr := json.Marshal(loc); jerr == nil {
		if serr := c.rdb.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.log.Debug("geo.cache.set.fail", "err", serr)
		}
	}
	return loc, nil
}
