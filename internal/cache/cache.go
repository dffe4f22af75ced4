package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through JSON cache on Redis. A cache failure never
// fails the request; the loader result is served and the miss logged.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

func New(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// FeeSummaryKey is the cache slot for a student's fee listing within a
// school and academic year.
func FeeSummaryKey(schoolID string, studentID int64, academicYearID string) string {
	return fmt.Sprintf("pay:fees:%s:%d:%s", schoolID, studentID, academicYearID)
}

func schoolPattern(schoolID string) string {
	return fmt.Sprintf("pay:fees:%s:*", schoolID)
}

// Remember returns the cached value under key, or runs the loader and
// stores its result for ttl. dest must be a pointer.
func (c *Cache) Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() (interface{}, error)) error {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if unmarshalErr := json.Unmarshal(payload, dest); unmarshalErr == nil {
			return nil
		}
		// Corrupt entry; fall through and reload.
		c.logger.Warn("dropping unreadable cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	value, err := load()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if setErr := c.client.Set(ctx, key, encoded, ttl).Err(); setErr != nil {
		c.logger.Warn("cache write failed", "key", key, "error", setErr)
	}

	return json.Unmarshal(encoded, dest)
}

// InvalidateSchool drops every fee listing cached for a school. Used
// when payments land or gateway settings change.
func (c *Cache) InvalidateSchool(ctx context.Context, schoolID string) error {
	iter := c.client.Scan(ctx, 0, schoolPattern(schoolID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	err := c.client.Del(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
