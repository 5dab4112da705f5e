package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/catalog/source"
)

// Status is the coordinator's externally visible loading state.
type Status string

const (
	// StatusLoading means no data is available yet.
	StatusLoading Status = "loading"
	// StatusCached means a stored snapshot is being served while the
	// staleness check runs.
	StatusCached Status = "cached"
	// StatusUpdating means the snapshot was stale and fresh data is being
	// fetched.
	StatusUpdating Status = "updating"
	// StatusComplete means the coordinator settled; data is as fresh as it
	// will get without another Initialize or Refresh.
	StatusComplete Status = "complete"
)

// watchedTables are the tables whose updated_at drives the staleness check.
var watchedTables = []string{"products", "categories"}

// Coordinator decides whether to serve the persisted snapshot, refresh it in
// the background, or block on a cold fetch. Fetch errors never escape; they
// degrade to empty or stale data and the machine still settles in
// StatusComplete.
type Coordinator struct {
	source   source.Source
	store    *SnapshotStore
	onStatus func(Status)

	mu          sync.RWMutex
	status      Status
	products    []catalog.Product
	categories  []catalog.Category
	lastUpdated time.Time

	runMu    sync.Mutex
	inflight chan struct{}
}

// NewCoordinator creates a coordinator. onStatus may be nil; when set it is
// called on every status transition, outside the coordinator's locks.
func NewCoordinator(src source.Source, store *SnapshotStore, onStatus func(Status)) *Coordinator {
	return &Coordinator{
		source:   src,
		store:    store,
		onStatus: onStatus,
		status:   StatusLoading,
	}
}

// Initialize runs the startup path: serve a valid stored snapshot
// immediately, then refresh only if the remote data is newer. Without a
// usable snapshot it cold-starts with a blocking fetch. Concurrent
// Initialize/Refresh calls coalesce onto a single in-flight run.
func (c *Coordinator) Initialize(ctx context.Context) {
	c.run(ctx, func(ctx context.Context) {
		c.setStatus(StatusLoading)

		snap := c.store.Get()
		if snap == nil {
			// Cold start: nothing usable locally.
			c.fetchAndPersist(ctx)
			c.setStatus(StatusComplete)
			return
		}

		c.setData(snap.Products, snap.Categories, snap.LastUpdated)
		c.setStatus(StatusCached)

		remoteMax, err := c.source.MaxUpdatedAt(ctx, watchedTables...)
		if err != nil {
			log.Printf("[Cache] Staleness check failed, serving cached data: %v", err)
			c.setStatus(StatusComplete)
			return
		}
		if remoteMax.After(snap.LastUpdated) {
			c.setStatus(StatusUpdating)
			c.fetchAndPersist(ctx)
		}
		c.setStatus(StatusComplete)
	})
}

// Refresh forces a full refetch regardless of staleness.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.run(ctx, func(ctx context.Context) {
		c.setStatus(StatusUpdating)
		c.fetchAndPersist(ctx)
		c.setStatus(StatusComplete)
	})
}

// Clear drops the persisted snapshot and resets in-memory data to empty.
func (c *Coordinator) Clear() {
	c.store.Clear()
	c.setData(nil, nil, time.Time{})
}

// run executes fn with single-flight semantics: while a run is in flight,
// later callers wait for its completion instead of starting their own.
func (c *Coordinator) run(ctx context.Context, fn func(context.Context)) {
	c.runMu.Lock()
	if c.inflight != nil {
		done := c.inflight
		c.runMu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	done := make(chan struct{})
	c.inflight = done
	c.runMu.Unlock()

	defer func() {
		c.runMu.Lock()
		c.inflight = nil
		c.runMu.Unlock()
		close(done)
	}()

	fn(ctx)
}

// fetchAndPersist pulls fresh snapshots of every watched table. On any error
// the current data is left untouched and the error is logged, never returned.
func (c *Coordinator) fetchAndPersist(ctx context.Context) {
	products, err := c.source.Products(ctx)
	if err != nil {
		log.Printf("[Cache] Failed to fetch products: %v", err)
		return
	}
	categories, err := c.source.Categories(ctx)
	if err != nil {
		log.Printf("[Cache] Failed to fetch categories: %v", err)
		return
	}

	now := time.Now().UTC()
	c.setData(products, categories, now)
	c.store.Set(&Snapshot{
		Products:    products,
		Categories:  categories,
		LastUpdated: now,
	})
}

func (c *Coordinator) setData(products []catalog.Product, categories []catalog.Category, lastUpdated time.Time) {
	c.mu.Lock()
	c.products = products
	c.categories = categories
	c.lastUpdated = lastUpdated
	c.mu.Unlock()
}

func (c *Coordinator) setStatus(status Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
	if c.onStatus != nil {
		c.onStatus(status)
	}
}

// Status returns the current machine state.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Products returns the currently loaded product snapshot.
func (c *Coordinator) Products() []catalog.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

// Categories returns the currently loaded category snapshot.
func (c *Coordinator) Categories() []catalog.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories
}

// LastUpdated returns the snapshot timestamp, zero when no data is loaded.
func (c *Coordinator) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}
