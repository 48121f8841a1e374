package tenant_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tmskit/pkg/tenant"
)

func TestInMemoryCache(t *testing.T) {
	t.Parallel()

	t.Run("set get delete", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		ctx := context.Background()
		rec := &tenant.Tenant{ID: 1, DatabaseName: "tenant_a"}

		cache.Set(ctx, "tenant_a", rec, time.Minute)
		got, ok := cache.Get(ctx, "tenant_a")
		require.True(t, ok)
		assert.Equal(t, rec, got)

		cache.Delete(ctx, "tenant_a")
		_, ok = cache.Get(ctx, "tenant_a")
		assert.False(t, ok)
	})

	t.Run("expired entries are not served", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		ctx := context.Background()
		cache.Set(ctx, "tenant_b", &tenant.Tenant{ID: 2}, 10*time.Millisecond)

		time.Sleep(20 * time.Millisecond)
		_, ok := cache.Get(ctx, "tenant_b")
		assert.False(t, ok)
	})

	t.Run("evicts least recently used at capacity", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCacheWithSize(2)
		defer cache.Close()

		ctx := context.Background()
		cache.Set(ctx, "tenant_a", &tenant.Tenant{ID: 1}, time.Minute)
		cache.Set(ctx, "tenant_b", &tenant.Tenant{ID: 2}, time.Minute)

		// Touch a so b becomes the eviction candidate.
		_, ok := cache.Get(ctx, "tenant_a")
		require.True(t, ok)

		cache.Set(ctx, "tenant_c", &tenant.Tenant{ID: 3}, time.Minute)

		_, ok = cache.Get(ctx, "tenant_b")
		assert.False(t, ok)
		_, ok = cache.Get(ctx, "tenant_a")
		assert.True(t, ok)
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		defer cache.Close()

		ctx := context.Background()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("tenant_%d", i%10)
				cache.Set(ctx, key, &tenant.Tenant{ID: int64(i)}, time.Minute)
				cache.Get(ctx, key)
			}(i)
		}
		wg.Wait()
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		cache := tenant.NewInMemoryCache()
		require.NoError(t, cache.Close())
		require.NoError(t, cache.Close())
	})
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	cache := tenant.NewNoOpCache()
	ctx := context.Background()

	cache.Set(ctx, "tenant_a", &tenant.Tenant{ID: 1}, time.Minute)
	_, ok := cache.Get(ctx, "tenant_a")
	assert.False(t, ok)
	assert.NoError(t, cache.Close())
}
