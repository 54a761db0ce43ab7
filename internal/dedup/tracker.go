// Package dedup tracks which ingest item versions have already been
// processed, so repeated provider fetches of the same content do not route
// twice.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsdesk/ingest-router/internal/logger"
)

type Tracker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewTracker(client *redis.Client, ttl time.Duration, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// key identifies one version of one item. A new version of a known guid gets
// a fresh key, so updates flow through while exact re-fetches are skipped.
func (t *Tracker) key(guid string, version int) string {
	return fmt.Sprintf("ingested:item:%s:%d", guid, version)
}

func (t *Tracker) HasIngested(ctx context.Context, guid string, version int) bool {
	key := t.key(guid, version)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		t.logger.Error("Redis error checking item",
			logger.String("guid", guid),
			logger.Int("version", version),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		// Log error but don't fail - assume not ingested
		return false
	}

	alreadyIngested := exists == 1
	if alreadyIngested {
		t.logger.Debug("Item version already ingested",
			logger.String("guid", guid),
			logger.Int("version", version),
		)
	}

	return alreadyIngested
}

func (t *Tracker) MarkIngested(ctx context.Context, guid string, version int) error {
	key := t.key(guid, version)

	err := t.client.Set(ctx, key, "1", t.ttl).Err()
	if err != nil {
		t.logger.Error("Redis error marking item as ingested",
			logger.String("guid", guid),
			logger.Int("version", version),
			logger.String("redis_key", key),
			logger.Duration("ttl", t.ttl),
			logger.Error(err),
		)
		return err
	}

	t.logger.Debug("Item version marked as ingested",
		logger.String("guid", guid),
		logger.Int("version", version),
		logger.String("redis_key", key),
	)

	return nil
}

func (t *Tracker) Clear(ctx context.Context, guid string, version int) error {
	key := t.key(guid, version)

	err := t.client.Del(ctx, key).Err()
	if err != nil {
		t.logger.Error("Redis error clearing item",
			logger.String("guid", guid),
			logger.Int("version", version),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return err
	}

	return nil
}

// FlushAll removes all ingested item keys from Redis.
// This clears the entire deduplication cache.
func (t *Tracker) FlushAll(ctx context.Context) error {
	t.logger.Info("Flushing all ingested item keys from Redis cache")

	// Use SCAN rather than FLUSHDB so only our keys are touched.
	pattern := "ingested:item:*"
	var cursor uint64
	var deletedCount int

	for {
		var keys []string
		var err error
		const scanBatchSize = 100
		keys, cursor, err = t.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			t.logger.Error("Redis error scanning for keys",
				logger.String("pattern", pattern),
				logger.Error(err),
			)
			return fmt.Errorf("scan keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, delErr := t.client.Del(ctx, keys...).Result()
			if delErr != nil {
				t.logger.Error("Redis error deleting keys",
					logger.Int("key_count", len(keys)),
					logger.Error(delErr),
				)
				return fmt.Errorf("delete keys: %w", delErr)
			}
			deletedCount += int(deleted)
		}

		if cursor == 0 {
			break
		}
	}

	t.logger.Info("Flushed Redis cache",
		logger.Int("keys_deleted", deletedCount),
		logger.String("pattern", pattern),
	)

	return nil
}
