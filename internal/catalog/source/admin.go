package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/example/storefront/internal/catalog"
)

// AdminStore is the back-office write side of the catalog. Every write bumps
// updated_at so the cache staleness check picks it up even if the change-feed
// event is lost.
type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

// UpsertProduct inserts or fully replaces a product row.
func (s *AdminStore) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	options, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, categories, subcategories, options,
		                       discount_percentage, is_active, stock_quantity, cover_image,
		                       created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   name = $2, description = $3, price = $4, categories = $5, subcategories = $6,
		   options = $7, discount_percentage = $8, is_active = $9, stock_quantity = $10,
		   cover_image = $11, updated_at = $12`,
		p.ID, p.Name, p.Description, p.Price,
		pq.Array(p.Categories), pq.Array(p.Subcategories), options,
		p.DiscountPercentage, p.IsActive, p.StockQuantity, p.CoverImage, now,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// UpsertDiscount inserts or replaces a discount rule.
func (s *AdminStore) UpsertDiscount(ctx context.Context, r *catalog.DiscountRule) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO active_discounts (id, discount_type, target_value, discount_percentage, is_active)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   discount_type = $2, target_value = NULLIF($3, ''), discount_percentage = $4, is_active = $5`,
		r.ID, r.Type, r.TargetValue, r.Percentage, r.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upsert discount: %w", err)
	}
	return nil
}
