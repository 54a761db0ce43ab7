package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/ingest-router/internal/dedup"
)

func newTestTracker(t *testing.T) (*dedup.Tracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return dedup.NewTracker(client, time.Hour, nil), mr
}

func TestTrackerMarkAndCheck(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	assert.False(t, tracker.HasIngested(ctx, "urn:newsml:item-1", 1))

	require.NoError(t, tracker.MarkIngested(ctx, "urn:newsml:item-1", 1))
	assert.True(t, tracker.HasIngested(ctx, "urn:newsml:item-1", 1))

	// A new version of the same guid is not a duplicate.
	assert.False(t, tracker.HasIngested(ctx, "urn:newsml:item-1", 2))
}

func TestTrackerKeysExpire(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.MarkIngested(ctx, "urn:newsml:item-1", 1))
	mr.FastForward(2 * time.Hour)

	assert.False(t, tracker.HasIngested(ctx, "urn:newsml:item-1", 1))
}

func TestTrackerClear(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.MarkIngested(ctx, "urn:newsml:item-1", 1))
	require.NoError(t, tracker.Clear(ctx, "urn:newsml:item-1", 1))
	assert.False(t, tracker.HasIngested(ctx, "urn:newsml:item-1", 1))
}

func TestTrackerFlushAll(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	for version := 1; version <= 150; version++ {
		require.NoError(t, tracker.MarkIngested(ctx, "urn:newsml:item-1", version))
	}

	require.NoError(t, tracker.FlushAll(ctx))
	assert.False(t, tracker.HasIngested(ctx, "urn:newsml:item-1", 1))
	assert.False(t, tracker.HasIngested(ctx, "urn:newsml:item-1", 150))
}
