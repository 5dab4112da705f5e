package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/catalog"
)

// fakeSource is an in-memory Source for coordinator tests.
type fakeSource struct {
	mu sync.Mutex

	products   []catalog.Product
	categories []catalog.Category
	discounts  []catalog.DiscountRule
	maxUpdated time.Time

	productsErr error
	maxErr      error

	productCalls int
	maxCalls     int

	// When set, Products blocks until the channel is closed.
	gate chan struct{}
}

func (f *fakeSource) Products(ctx context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	f.productCalls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return f.products, nil
}

func (f *fakeSource) Categories(ctx context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}

func (f *fakeSource) ActiveDiscounts(ctx context.Context) ([]catalog.DiscountRule, error) {
	return f.discounts, nil
}

func (f *fakeSource) MaxUpdatedAt(ctx context.Context, tables ...string) (time.Time, error) {
	f.mu.Lock()
	f.maxCalls++
	f.mu.Unlock()
	if f.maxErr != nil {
		return time.Time{}, f.maxErr
	}
	return f.maxUpdated, nil
}

func (f *fakeSource) calls() (products, max int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.productCalls, f.maxCalls
}

// statusRecorder collects every status transition.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

func newTestCoordinator(src *fakeSource, kv KV) (*Coordinator, *SnapshotStore, *statusRecorder) {
	rec := &statusRecorder{}
	store := NewSnapshotStore(kv)
	return NewCoordinator(src, store, rec.record), store, rec
}

func seedSnapshot(t *testing.T, store *SnapshotStore, lastUpdated time.Time) {
	t.Helper()
	store.Set(&Snapshot{
		Products:    []catalog.Product{{ID: "old", Name: "عطر قديم", Price: 9000}},
		Categories:  []catalog.Category{{ID: "c1", Name: "عطور"}},
		LastUpdated: lastUpdated,
	})
}

// ============================================
// Initialize Tests
// ============================================

func TestCoordinator_Initialize_ColdStart(t *testing.T) {
	src := &fakeSource{
		products:   []catalog.Product{{ID: "p1", Name: "كريم أساس", Price: 12000}},
		categories: []catalog.Category{{ID: "c1", Name: "مكياج"}},
	}
	coord, store, rec := newTestCoordinator(src, NewMemoryKV())

	coord.Initialize(context.Background())

	assert.Equal(t, []Status{StatusLoading, StatusComplete}, rec.all())
	assert.Equal(t, StatusComplete, coord.Status())
	assert.Equal(t, src.products, coord.Products())

	// The cold fetch must have been persisted.
	persisted := store.Get()
	require.NotNil(t, persisted)
	assert.Equal(t, src.products, persisted.Products)
}

func TestCoordinator_Initialize_ColdStart_FetchError(t *testing.T) {
	src := &fakeSource{productsErr: errors.New("connection refused")}
	coord, store, rec := newTestCoordinator(src, NewMemoryKV())

	coord.Initialize(context.Background())

	// A failed cold start still settles in complete with empty data;
	// callers must never block on a dead network.
	assert.Equal(t, []Status{StatusLoading, StatusComplete}, rec.all())
	assert.Empty(t, coord.Products())
	assert.Nil(t, store.Get())
}

func TestCoordinator_Initialize_StaleSnapshot(t *testing.T) {
	cachedAt := time.Now().UTC().Add(-time.Hour)
	src := &fakeSource{
		products:   []catalog.Product{{ID: "new", Name: "عطر جديد", Price: 15000}},
		maxUpdated: cachedAt.Add(time.Second),
	}
	coord, store, rec := newTestCoordinator(src, NewMemoryKV())
	seedSnapshot(t, store, cachedAt)

	coord.Initialize(context.Background())

	assert.Equal(t, []Status{StatusLoading, StatusCached, StatusUpdating, StatusComplete}, rec.all())
	require.Len(t, coord.Products(), 1)
	assert.Equal(t, "new", coord.Products()[0].ID)

	persisted := store.Get()
	require.NotNil(t, persisted)
	assert.Equal(t, "new", persisted.Products[0].ID)
}

func TestCoordinator_Initialize_FreshSnapshot(t *testing.T) {
	cachedAt := time.Now().UTC()
	src := &fakeSource{
		products:   []catalog.Product{{ID: "new"}},
		maxUpdated: cachedAt.Add(-time.Second),
	}
	coord, store, rec := newTestCoordinator(src, NewMemoryKV())
	seedSnapshot(t, store, cachedAt)

	coord.Initialize(context.Background())

	// No newer remote data: straight from cached to complete, no refetch.
	assert.Equal(t, []Status{StatusLoading, StatusCached, StatusComplete}, rec.all())
	productCalls, maxCalls := src.calls()
	assert.Zero(t, productCalls)
	assert.Equal(t, 1, maxCalls)
	require.Len(t, coord.Products(), 1)
	assert.Equal(t, "old", coord.Products()[0].ID)
}

func TestCoordinator_Initialize_StalenessCheckError(t *testing.T) {
	src := &fakeSource{maxErr: errors.New("timeout")}
	coord, store, rec := newTestCoordinator(src, NewMemoryKV())
	seedSnapshot(t, store, time.Now())

	coord.Initialize(context.Background())

	// Staleness check failure degrades to the cached data.
	assert.Equal(t, []Status{StatusLoading, StatusCached, StatusComplete}, rec.all())
	require.Len(t, coord.Products(), 1)
	assert.Equal(t, "old", coord.Products()[0].ID)
}

// ============================================
// Refresh / Clear Tests
// ============================================

func TestCoordinator_Refresh_ForcesRefetch(t *testing.T) {
	cachedAt := time.Now().UTC()
	src := &fakeSource{
		products:   []catalog.Product{{ID: "new"}},
		maxUpdated: cachedAt.Add(-time.Minute),
	}
	coord, store, rec := newTestCoordinator(src, NewMemoryKV())
	seedSnapshot(t, store, cachedAt)

	coord.Refresh(context.Background())

	assert.Equal(t, []Status{StatusUpdating, StatusComplete}, rec.all())
	productCalls, _ := src.calls()
	assert.Equal(t, 1, productCalls)
	require.Len(t, coord.Products(), 1)
	assert.Equal(t, "new", coord.Products()[0].ID)
}

func TestCoordinator_Refresh_ErrorKeepsCurrentData(t *testing.T) {
	src := &fakeSource{products: []catalog.Product{{ID: "p1"}}}
	coord, store, _ := newTestCoordinator(src, NewMemoryKV())

	coord.Refresh(context.Background())
	require.Len(t, coord.Products(), 1)

	src.productsErr = errors.New("backend down")
	coord.Refresh(context.Background())

	assert.Equal(t, StatusComplete, coord.Status())
	assert.Len(t, coord.Products(), 1)
	require.NotNil(t, store.Get())
}

func TestCoordinator_Clear(t *testing.T) {
	src := &fakeSource{products: []catalog.Product{{ID: "p1"}}}
	coord, store, _ := newTestCoordinator(src, NewMemoryKV())
	coord.Initialize(context.Background())
	require.NotEmpty(t, coord.Products())

	coord.Clear()

	assert.Empty(t, coord.Products())
	assert.Nil(t, store.Get())
	assert.True(t, coord.LastUpdated().IsZero())
}

// ============================================
// Coalescing Tests
// ============================================

func TestCoordinator_ConcurrentRefreshesCoalesce(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{
		products: []catalog.Product{{ID: "p1"}},
		gate:     gate,
	}
	coord, _, _ := newTestCoordinator(src, NewMemoryKV())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			coord.Refresh(context.Background())
		}()
	}

	// Wait until the first refresh is inside the fetch, then let the rest
	// pile up behind it before releasing.
	require.Eventually(t, func() bool {
		productCalls, _ := src.calls()
		return productCalls == 1
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	productCalls, _ := src.calls()
	assert.Equal(t, 1, productCalls, "concurrent refreshes must share one fetch")
	assert.Equal(t, StatusComplete, coord.Status())
}
