package catalog_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danupratama/backend-kasir/internal/cache"
	"github.com/danupratama/backend-kasir/internal/catalog"
	"github.com/danupratama/backend-kasir/internal/erp"
)

type countingERP struct {
	erp.Mock
	mu    sync.Mutex
	calls int
	block chan struct{}
}

func (c *countingERP) Products(ctx context.Context, q erp.ProductQuery) ([]erp.Product, error) {
	c.mu.Lock()
	c.calls++
	block := c.block
	c.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.Mock.Products(ctx, q)
}

func newService(t *testing.T) (*catalog.Service, *countingERP) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	backend := &countingERP{}
	return &catalog.Service{
		ERP:      backend,
		Cache:    cache.New(client, 10 * time.Minute),
		PageSize: 50,
		Log:      zerolog.Nop(),
	}, backend
}

func TestListCachesPages(t *testing.T) {
	svc, backend := newService(t)
	ctx := context.Background()

	first, err := svc.List(ctx, 0, 50)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.List(ctx, 0, 50)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, backend.calls)
}

func TestSearchMatches(t *testing.T) {
	svc, _ := newService(t)

	products, err := svc.Search(context.Background(), "kopi")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "KOPI-001", products[0].ItemCode)
}

func TestNewerSearchSupersedesOlder(t *testing.T) {
	svc, backend := newService(t)
	ctx := context.Background()

	backend.block = make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = svc.Search(ctx, "kopi")
	}()

	// Give the first search a moment to register before firing the second.
	time.Sleep(20 * time.Millisecond)
	backend.mu.Lock()
	backend.block = nil
	backend.mu.Unlock()

	latest, err := svc.Search(ctx, "teh")
	require.NoError(t, err)
	require.Len(t, latest, 1)
	require.Equal(t, "TEH-001", latest[0].ItemCode)

	wg.Wait()
	require.ErrorIs(t, firstErr, catalog.ErrSuperseded)
}

func TestWarmFillsCache(t *testing.T) {
	svc, backend := newService(t)
	svc.PageSize = 2
	ctx := context.Background()

	svc.Warm(ctx)
	warmCalls := backend.calls

	_, err := svc.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, warmCalls, backend.calls)
}
