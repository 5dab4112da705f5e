package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/changefeed"
	"github.com/example/storefront/internal/invalidation"
)

type stubSource struct {
	mu            sync.Mutex
	products      []catalog.Product
	discounts     []catalog.DiscountRule
	discountCalls int
}

func (s *stubSource) Products(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products, nil
}

func (s *stubSource) Categories(ctx context.Context) ([]catalog.Category, error) {
	return nil, nil
}

func (s *stubSource) ActiveDiscounts(ctx context.Context) ([]catalog.DiscountRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discountCalls++
	return s.discounts, nil
}

func (s *stubSource) MaxUpdatedAt(ctx context.Context, tables ...string) (time.Time, error) {
	return time.Time{}, nil
}

func (s *stubSource) set(products []catalog.Product, discounts []catalog.DiscountRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.discounts = discounts
}

func (s *stubSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discountCalls
}

func TestService_RulesReadThrough(t *testing.T) {
	src := &stubSource{discounts: []catalog.DiscountRule{{ID: "d1", Percentage: 10, IsActive: true}}}
	coord := cache.NewCoordinator(src, cache.NewSnapshotStore(cache.NewMemoryKV()), nil)
	registry := invalidation.NewRegistry()
	svc := NewService(coord, src, registry)
	defer svc.Close()

	ctx := context.Background()
	first := svc.Rules(ctx)
	second := svc.Rules(ctx)

	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	// The second read is served from the cached rule set.
	assert.Equal(t, 1, src.calls())
}

func TestService_DiscountChangeInvalidatesRules(t *testing.T) {
	src := &stubSource{discounts: []catalog.DiscountRule{{ID: "d1", Percentage: 10, IsActive: true}}}
	coord := cache.NewCoordinator(src, cache.NewSnapshotStore(cache.NewMemoryKV()), nil)
	registry := invalidation.NewRegistry()
	svc := NewService(coord, src, registry)
	defer svc.Close()

	ctx := context.Background()
	require.Len(t, svc.Rules(ctx), 1)

	src.set(nil, []catalog.DiscountRule{
		{ID: "d1", Percentage: 10, IsActive: true},
		{ID: "d2", Percentage: 25, IsActive: true},
	})
	registry.Dispatch(changefeed.Event{Table: "active_discounts", Op: changefeed.OpInsert})

	assert.Len(t, svc.Rules(ctx), 2)
	assert.Equal(t, 2, src.calls())
}

func TestService_ProductChangeRefreshesSnapshot(t *testing.T) {
	src := &stubSource{products: []catalog.Product{{ID: "p1", IsActive: true}}}
	coord := cache.NewCoordinator(src, cache.NewSnapshotStore(cache.NewMemoryKV()), nil)
	registry := invalidation.NewRegistry()
	svc := NewService(coord, src, registry)
	defer svc.Close()

	coord.Initialize(context.Background())
	require.Len(t, svc.Search(Query{}), 1)

	src.set([]catalog.Product{{ID: "p1", IsActive: true}, {ID: "p2", IsActive: true}}, nil)
	registry.Dispatch(changefeed.Event{Table: "products", Op: changefeed.OpUpdate, RecordID: "p2"})

	assert.Eventually(t, func() bool {
		return len(svc.Search(Query{})) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestService_CloseStopsInvalidation(t *testing.T) {
	src := &stubSource{}
	coord := cache.NewCoordinator(src, cache.NewSnapshotStore(cache.NewMemoryKV()), nil)
	registry := invalidation.NewRegistry()
	svc := NewService(coord, src, registry)

	svc.Close()

	assert.Zero(t, registry.SubscriberCount("products"))
	assert.Zero(t, registry.SubscriberCount("active_discounts"))
}
