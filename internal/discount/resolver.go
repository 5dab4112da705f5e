// Package discount resolves the effective price of a cart line item against
// the set of discount rules currently in force. Resolution is a pure function
// of its inputs: the original price, the product's category membership, and
// the rule set. Overlapping rules never stack; the highest applicable
// percentage wins.
package discount

import (
	"github.com/example/storefront/internal/catalog"
)

// Resolution is the outcome of resolving one line item.
type Resolution struct {
	// Percentage is the applied discount in [0,100]; 0 means no discount.
	Percentage int `json:"percentage"`
	// UnitPrice is the effective price after the discount, rounded half-up.
	UnitPrice int `json:"unit_price"`
}

// Resolve computes the effective discount for a product priced at price that
// belongs to the given categories and subcategories.
//
// Rules that are inactive or carry a percentage outside [0,100] are excluded
// from the candidate set entirely, not clamped. A negative price is returned
// unchanged with no discount rather than producing a negative result.
func Resolve(price int, categories, subcategories []string, rules []catalog.DiscountRule) Resolution {
	if price < 0 {
		return Resolution{Percentage: 0, UnitPrice: price}
	}

	best := 0
	for _, rule := range rules {
		if !rule.IsActive || rule.Percentage < 0 || rule.Percentage > 100 {
			continue
		}
		if !applies(rule, categories, subcategories) {
			continue
		}
		if rule.Percentage > best {
			best = rule.Percentage
		}
	}

	return Resolution{
		Percentage: best,
		UnitPrice:  discounted(price, best),
	}
}

// ResolveProduct resolves against the product's own membership sets.
func ResolveProduct(p *catalog.Product, rules []catalog.DiscountRule) Resolution {
	return Resolve(p.Price, p.Categories, p.Subcategories, rules)
}

func applies(rule catalog.DiscountRule, categories, subcategories []string) bool {
	switch rule.Type {
	case catalog.DiscountAllProducts:
		return true
	case catalog.DiscountByCategory:
		return contains(categories, rule.TargetValue)
	case catalog.DiscountBySubcategory:
		return contains(subcategories, rule.TargetValue)
	}
	return false
}

func contains(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// discounted returns price reduced by pct percent, rounded half-up.
func discounted(price, pct int) int {
	if pct <= 0 {
		return price
	}
	return (price*(100-pct) + 50) / 100
}
