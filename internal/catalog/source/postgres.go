package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/example/storefront/internal/catalog"
)

// PostgresSource implements Source against the hosted catalog tables.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// ConnectPostgres opens and pings a PostgreSQL connection.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresSource) Products(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, price, categories, subcategories, options,
		        discount_percentage, is_active, stock_quantity, cover_image,
		        created_at, updated_at
		 FROM products
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		var optionsJSON []byte
		var coverImage sql.NullString
		err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price,
			pq.Array(&p.Categories), pq.Array(&p.Subcategories), &optionsJSON,
			&p.DiscountPercentage, &p.IsActive, &p.StockQuantity, &coverImage,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.CoverImage = coverImage.String
		if len(optionsJSON) > 0 {
			if err := json.Unmarshal(optionsJSON, &p.Options); err != nil {
				log.Printf("[Source] Bad options JSON for product %s: %v", p.ID, err)
			}
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresSource) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []catalog.Category
	index := make(map[string]int)
	for rows.Next() {
		var c catalog.Category
		var icon sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Icon = icon.String
		c.Subcategories = []catalog.Subcategory{}
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := s.db.QueryContext(ctx,
		`SELECT id, category_id, name, icon FROM subcategories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query subcategories: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		var sub catalog.Subcategory
		var icon sql.NullString
		if err := subRows.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &icon); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		sub.Icon = icon.String
		if i, ok := index[sub.CategoryID]; ok {
			categories[i].Subcategories = append(categories[i].Subcategories, sub)
		}
	}
	return categories, subRows.Err()
}

func (s *PostgresSource) ActiveDiscounts(ctx context.Context) ([]catalog.DiscountRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, discount_type, COALESCE(target_value, ''), discount_percentage, is_active
		 FROM active_discounts
		 WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("query active discounts: %w", err)
	}
	defer rows.Close()

	var rules []catalog.DiscountRule
	for rows.Next() {
		var r catalog.DiscountRule
		if err := rows.Scan(&r.ID, &r.Type, &r.TargetValue, &r.Percentage, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan discount rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// MaxUpdatedAt drives the staleness check: the cache is stale when any watched
// table has a row newer than the cached snapshot.
func (s *PostgresSource) MaxUpdatedAt(ctx context.Context, tables ...string) (time.Time, error) {
	var max time.Time
	for _, table := range tables {
		switch table {
		case "products", "categories", "subcategories":
		default:
			return time.Time{}, fmt.Errorf("max updated_at: unwatched table %q", table)
		}

		var ts sql.NullTime
		query := fmt.Sprintf("SELECT MAX(updated_at) FROM %s", table)
		if err := s.db.QueryRowContext(ctx, query).Scan(&ts); err != nil {
			return time.Time{}, fmt.Errorf("max updated_at for %s: %w", table, err)
		}
		if ts.Valid && ts.Time.After(max) {
			max = ts.Time
		}
	}
	return max, nil
}
