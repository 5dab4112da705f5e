package cart

import (
	"errors"
	"sync"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/discount"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product is required")
	ErrUnknownVariant  = errors.New("product has no such variant")
)

// LineItem is one distinct (product, variant) pairing in a cart. UnitPrice is
// snapshotted at add time and never re-derived from the catalog.
type LineItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	UnitPrice  int    `json:"unit_price"`
	Quantity   int    `json:"quantity"`
	Variant    string `json:"variant,omitempty"`
	CoverImage string `json:"cover_image,omitempty"`
}

// PricedItem is a line item with its resolved discount applied.
type PricedItem struct {
	LineItem
	DiscountPercentage int `json:"discount_percentage"`
	DiscountedPrice    int `json:"discounted_price"`
	LineTotal          int `json:"line_total"`
}

// Service holds the in-memory carts, one per session. Carts are never
// persisted; a session's cart dies with the process.
type Service struct {
	mu    sync.RWMutex
	carts map[string]*sessionCart
}

type sessionCart struct {
	items map[string]*LineItem // lineKey -> item
	order []string             // insertion order for stable listing
}

func NewService() *Service {
	return &Service{carts: make(map[string]*sessionCart)}
}

func lineKey(productID, variant string) string {
	return productID + "\x00" + variant
}

func (s *Service) cart(sessionID string) *sessionCart {
	c, ok := s.carts[sessionID]
	if !ok {
		c = &sessionCart{items: make(map[string]*LineItem)}
		s.carts[sessionID] = c
	}
	return c
}

// Add puts quantity units of the product (with an optional variant) into the
// session's cart. Items with different variants of the same product are
// distinct lines. Re-adding an existing line increases its quantity but keeps
// the unit price snapshotted at the first add.
func (s *Service) Add(sessionID string, p *catalog.Product, variant string, quantity int) error {
	if p == nil || p.ID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	price := p.Price
	if variant != "" {
		found := false
		for _, opt := range p.Options {
			if opt.Name == variant {
				found = true
				if opt.Price != nil {
					price = *opt.Price
				}
				break
			}
		}
		if !found {
			return ErrUnknownVariant
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(sessionID)
	key := lineKey(p.ID, variant)
	if item, ok := c.items[key]; ok {
		item.Quantity += quantity
		return nil
	}
	c.items[key] = &LineItem{
		ProductID:  p.ID,
		Name:       p.Name,
		UnitPrice:  price,
		Quantity:   quantity,
		Variant:    variant,
		CoverImage: p.CoverImage,
	}
	c.order = append(c.order, key)
	return nil
}

// SetQuantity sets the quantity of a line. Zero or less removes the line.
func (s *Service) SetQuantity(sessionID, productID, variant string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cart(sessionID)
	key := lineKey(productID, variant)
	if quantity <= 0 {
		c.remove(key)
		return
	}
	if item, ok := c.items[key]; ok {
		item.Quantity = quantity
	}
}

// Remove deletes a line outright.
func (s *Service) Remove(sessionID, productID, variant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart(sessionID).remove(lineKey(productID, variant))
}

// Clear empties the session's cart.
func (s *Service) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

func (c *sessionCart) remove(key string) {
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Items returns the session's line items in insertion order.
func (s *Service) Items(sessionID string) []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return []LineItem{}
	}
	items := make([]LineItem, 0, len(c.order))
	for _, key := range c.order {
		items = append(items, *c.items[key])
	}
	return items
}

// Subtotal is the undiscounted total of the session's cart.
func (s *Service) Subtotal(sessionID string) int {
	total := 0
	for _, item := range s.Items(sessionID) {
		total += item.UnitPrice * item.Quantity
	}
	return total
}

// Priced resolves every line against the current rule set. The lookup maps a
// product ID to its catalog row; lines whose product is gone from the catalog
// keep their snapshotted price with no discount. Resolution always starts
// from the snapshotted unit price, so repeated calls are idempotent.
func (s *Service) Priced(sessionID string, lookup func(id string) (*catalog.Product, bool), rules []catalog.DiscountRule) ([]PricedItem, int) {
	items := s.Items(sessionID)
	priced := make([]PricedItem, 0, len(items))
	total := 0
	for _, item := range items {
		res := discount.Resolution{Percentage: 0, UnitPrice: item.UnitPrice}
		if p, ok := lookup(item.ProductID); ok {
			res = discount.Resolve(item.UnitPrice, p.Categories, p.Subcategories, rules)
		}
		pi := PricedItem{
			LineItem:           item,
			DiscountPercentage: res.Percentage,
			DiscountedPrice:    res.UnitPrice,
			LineTotal:          res.UnitPrice * item.Quantity,
		}
		total += pi.LineTotal
		priced = append(priced, pi)
	}
	return priced, total
}
