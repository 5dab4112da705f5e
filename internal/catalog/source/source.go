package source

import (
	"context"
	"time"

	"github.com/example/storefront/internal/catalog"
)

// Source is the remote data source the cache layer reads from. The storefront
// never mutates catalog rows through this interface; writes go through the
// admin paths.
type Source interface {
	// Products returns every product row, active or not.
	Products(ctx context.Context) ([]catalog.Product, error)

	// Categories returns all categories with their subcategories attached.
	Categories(ctx context.Context) ([]catalog.Category, error)

	// ActiveDiscounts returns the discount rules currently in force.
	ActiveDiscounts(ctx context.Context) ([]catalog.DiscountRule, error)

	// MaxUpdatedAt returns the latest updated_at across the given tables.
	// A zero time means no rows exist.
	MaxUpdatedAt(ctx context.Context, tables ...string) (time.Time, error)
}
