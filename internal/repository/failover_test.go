package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestFailoverCache(t *testing.T) {
	primary := new(mockCache)
	fallback := NewMemoryCache()
	logger := zerolog.New(io.Discard)
	cache := NewFailoverCache(primary, fallback, &logger)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx, "k").Return("v", true, nil).Once()

		val, ok, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", val)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailsThenFallback", func(t *testing.T) {
		primary.On("Set", ctx, "k", "v2", time.Minute).Return(errors.New("redis down")).Once()

		require.NoError(t, cache.Set(ctx, "k", "v2", time.Minute))
		assert.True(t, cache.isDown.Load())

		// primary is skipped while down
		val, ok, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v2", val)
		primary.AssertExpectations(t)
	})

	t.Run("Recovery", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("SetIfAbsent", ctx, "r", "1", time.Hour).Return(true, nil).Once()

		ok, err := cache.SetIfAbsent(ctx, "r", "1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, cache.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("DeleteClearsBoth", func(t *testing.T) {
		require.NoError(t, fallback.Set(ctx, "logo", "x", 0))
		primary.On("Delete", ctx, "logo").Return(nil).Once()

		require.NoError(t, cache.Delete(ctx, "logo"))
		_, ok, _ := fallback.Get(ctx, "logo")
		assert.False(t, ok)
		primary.AssertExpectations(t)
	})
}
