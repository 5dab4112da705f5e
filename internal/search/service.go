package search

import (
	"context"
	"log"
	"sync"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/catalog/source"
	"github.com/example/storefront/internal/changefeed"
	"github.com/example/storefront/internal/invalidation"
)

// Service is the storefront query layer. It answers searches from the cache
// coordinator's snapshot, keeps a read-through copy of the active discount
// rules, and registers interest in the change feed so remote changes
// invalidate both.
type Service struct {
	coord *cache.Coordinator
	src   source.Source
	sub   *invalidation.Subscription

	mu         sync.Mutex
	rules      []catalog.DiscountRule
	rulesFresh bool
}

func NewService(coord *cache.Coordinator, src source.Source, registry *invalidation.Registry) *Service {
	s := &Service{coord: coord, src: src}
	if registry != nil {
		s.sub = registry.Subscribe(
			[]string{"products", "categories", "subcategories", "active_discounts"},
			changefeed.OpAny,
			s.onChange,
		)
	}
	return s
}

// Close releases the change-feed subscription.
func (s *Service) Close() {
	if s.sub != nil {
		s.sub.Close()
	}
}

func (s *Service) onChange(ev changefeed.Event) {
	switch ev.Table {
	case "active_discounts":
		s.mu.Lock()
		s.rulesFresh = false
		s.mu.Unlock()
	default:
		// Catalog rows changed; refresh the snapshot off the event path.
		go s.coord.Refresh(context.Background())
	}
}

// Search runs the query against the cached catalog.
func (s *Service) Search(q Query) []catalog.Product {
	return Run(s.coord.Products(), s.coord.Categories(), q)
}

// Rules returns the active discount rules, refetching after an invalidation.
// A fetch failure degrades to the last known rule set.
func (s *Service) Rules(ctx context.Context) []catalog.DiscountRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rulesFresh {
		return s.rules
	}
	rules, err := s.src.ActiveDiscounts(ctx)
	if err != nil {
		log.Printf("[Search] Failed to fetch active discounts, serving stale rules: %v", err)
		return s.rules
	}
	s.rules = rules
	s.rulesFresh = true
	return s.rules
}
