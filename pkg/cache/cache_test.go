package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Meeting-BaaS/emails/pkg/cache"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](time.Minute, 0)
		defer c.Close()

		_, err := c.Get(ctx, "nope")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("set get delete", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](time.Minute, 0)
		defer c.Close()

		require.NoError(t, c.Set(ctx, "a", 1, 0))
		v, err := c.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, 1, v)

		require.NoError(t, c.Delete(ctx, "a"))
		_, err = c.Get(ctx, "a")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("expired entries are not returned", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](time.Minute, 0)
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
		time.Sleep(25 * time.Millisecond)
		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](time.Millisecond, 0)
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", -1))
		time.Sleep(5 * time.Millisecond)
		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v", v)
	})

	t.Run("janitor removes expired entries", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](5*time.Millisecond, 5*time.Millisecond)
		defer c.Close()

		require.NoError(t, c.Set(ctx, "k", "v", 0))
		require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("set after close fails", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](time.Minute, time.Minute)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
		require.ErrorIs(t, c.Set(ctx, "k", "v", 0), cache.ErrClosed)
	})
}

func TestLoader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("caches successful loads", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		l := cache.NewLoader[string](cache.NewMemory[string](time.Minute, 0))
		load := func(context.Context) (string, error) {
			calls.Add(1)
			return "session", nil
		}

		for range 3 {
			v, err := l.Load(ctx, "cookie", 0, load)
			require.NoError(t, err)
			require.Equal(t, "session", v)
		}
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		l := cache.NewLoader[string](cache.NewMemory[string](time.Minute, 0))
		boom := errors.New("auth service down")
		load := func(context.Context) (string, error) {
			calls.Add(1)
			return "", boom
		}

		_, err := l.Load(ctx, "cookie", 0, load)
		require.ErrorIs(t, err, boom)
		_, err = l.Load(ctx, "cookie", 0, load)
		require.ErrorIs(t, err, boom)
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		release := make(chan struct{})
		l := cache.NewLoader[int](cache.NewMemory[int](time.Minute, 0))
		load := func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 42, nil
		}

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := l.Load(ctx, "packs", 0, load)
				require.NoError(t, err)
				require.Equal(t, 42, v)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("forget forces a reload", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		l := cache.NewLoader[int](cache.NewMemory[int](time.Minute, 0))
		load := func(context.Context) (int, error) { return int(calls.Add(1)), nil }

		v, _ := l.Load(ctx, "k", 0, load)
		require.Equal(t, 1, v)
		require.NoError(t, l.Forget(ctx, "k"))
		v, _ = l.Load(ctx, "k", 0, load)
		require.Equal(t, 2, v)
	})
}
