package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/carbonledger-backend/internal/logger"
)

// SummaryCache is a read-through cache for summary query responses. Entries
// are versioned: invalidation bumps a version counter instead of scanning
// for keys, so stale entries just stop being addressable and expire via TTL.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidateSummaries(ctx context.Context) error
	Close() error
}

type summaryCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewSummaryCache(log *logger.Logger) (SummaryCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 10 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("SUMMARY_CACHE_TTL_SECONDS")); raw != "" {
		var seconds int
		if _, err := fmt.Sscanf(raw, "%d", &seconds); err == nil && seconds > 0 {
			ttl = time.Duration(seconds) * time.Second
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &summaryCache{
		log:    log.With("service", "RedisSummaryCache"),
		rdb:    rdb,
		prefix: "carbonledger:summaries",
		ttl:    ttl,
	}, nil
}

func (c *summaryCache) versionKey() string {
	return c.prefix + ":version"
}

func (c *summaryCache) entryKey(ctx context.Context, key string) (string, error) {
	version, err := c.rdb.Get(ctx, c.versionKey()).Result()
	if err == goredis.Nil {
		version = "0"
	} else if err != nil {
		return "", fmt.Errorf("read cache version: %w", err)
	}
	return fmt.Sprintf("%s:v%s:%s", c.prefix, version, key), nil
}

// Get unmarshals a cached entry into dest. The bool reports a hit; cache
// transport errors are returned so callers can decide to fall through.
func (c *summaryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		return false, err
	}
	raw, err := c.rdb.Get(ctx, entryKey).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached entry: %w", err)
	}
	return true, nil
}

func (c *summaryCache) Set(ctx context.Context, key string, value any) error {
	entryKey, err := c.entryKey(ctx, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, entryKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *summaryCache) InvalidateSummaries(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, c.versionKey()).Err(); err != nil {
		return fmt.Errorf("bump cache version: %w", err)
	}
	c.log.Debug("Invalidated summary cache")
	return nil
}

func (c *summaryCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
