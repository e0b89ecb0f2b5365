package sessionlog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopDeduperAlwaysFirst(t *testing.T) {
	var d NoopDeduper
	for i := 0; i < 2; i++ {
		first, err := d.FirstSeen(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, first)
	}
	assert.NoError(t, d.Forget(context.Background(), "k"))
}

func TestNewRedisDeduperRejectsBadURL(t *testing.T) {
	_, err := NewRedisDeduper(context.Background(), "not a url", time.Minute)
	assert.Error(t, err)
}

// Runs against a live server only when TEST_REDIS_URL is set.
func TestRedisDeduperIntegration(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	d, err := NewRedisDeduper(ctx, url, time.Minute)
	require.NoError(t, err)
	defer d.Close()

	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _ = d.Forget(context.Background(), key) })

	first, err := d.FirstSeen(ctx, key)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, key)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, d.Forget(ctx, key))
	afterForget, err := d.FirstSeen(ctx, key)
	require.NoError(t, err)
	assert.True(t, afterForget)
}
