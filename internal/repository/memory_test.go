package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "logo", "/a.png", 0))
		val, ok, err := cache.Get(ctx, "logo")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "/a.png", val)
	})

	t.Run("Missing", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expiry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "short", "x", time.Minute))
		now = now.Add(2 * time.Minute)
		_, ok, _ := cache.Get(ctx, "short")
		assert.False(t, ok)
	})

	t.Run("SetIfAbsent", func(t *testing.T) {
		ok, err := cache.SetIfAbsent(ctx, "reminder:1", "1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = cache.SetIfAbsent(ctx, "reminder:1", "1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		now = now.Add(2 * time.Hour)
		ok, err = cache.SetIfAbsent(ctx, "reminder:1", "1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "expired key can be claimed again")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Delete(ctx, "logo"))
		_, ok, _ := cache.Get(ctx, "logo")
		assert.False(t, ok)
	})
}
