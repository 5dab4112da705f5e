package catalog

import "time"

// Discount rule types as stored in the active_discounts table.
const (
	DiscountAllProducts   = "all_products"
	DiscountByCategory    = "category"
	DiscountBySubcategory = "subcategory"
)

// Option is a named sub-choice of a product (e.g. a shade) that may carry
// its own price override.
type Option struct {
	Name  string `json:"name,omitempty"`
	Price *int   `json:"price,omitempty"`
}

// Product is a catalog product row.
type Product struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Price              int       `json:"price"`
	Categories         []string  `json:"categories"`
	Subcategories      []string  `json:"subcategories"`
	Options            []Option  `json:"options,omitempty"`
	DiscountPercentage int       `json:"discount_percentage"`
	IsActive           bool      `json:"is_active"`
	StockQuantity      int       `json:"stock_quantity"`
	CoverImage         string    `json:"cover_image,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Subcategory belongs to exactly one category; it is deleted with its parent.
type Subcategory struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Icon       string `json:"icon,omitempty"`
}

// Category is fetched eagerly with its subcategories attached.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Icon          string        `json:"icon,omitempty"`
	Subcategories []Subcategory `json:"subcategories"`
}

// DiscountRule is a row of the active_discounts view. TargetValue is a
// category or subcategory ID, or empty for the all-products type.
type DiscountRule struct {
	ID          string `json:"id"`
	Type        string `json:"discount_type"`
	TargetValue string `json:"target_value,omitempty"`
	Percentage  int    `json:"discount_percentage"`
	IsActive    bool   `json:"is_active"`
}

// HasCategory reports whether the product belongs to the given category.
func (p *Product) HasCategory(id string) bool {
	for _, c := range p.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// HasSubcategory reports whether the product belongs to the given subcategory.
func (p *Product) HasSubcategory(id string) bool {
	for _, s := range p.Subcategories {
		if s == id {
			return true
		}
	}
	return false
}
