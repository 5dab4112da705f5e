package search

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/example/storefront/internal/catalog"
)

// CategoryDiscounts is the sentinel category filter that restricts results to
// discounted products.
const CategoryDiscounts = "discounts"

// Query is a storefront product search.
type Query struct {
	// Text is a free-text query, split on whitespace. Every term must
	// match for a product to be returned.
	Text string
	// Category is a category ID, or CategoryDiscounts.
	Category string
	// Subcategory narrows a category filter further.
	Subcategory string
}

// Run filters the product set. Only active products are returned.
//
// With the discounts sentinel, results carry discount_percentage > 0 and are
// sorted descending by it. In every other case the result order is shuffled
// per call: callers get no ordering guarantee.
func Run(products []catalog.Product, categories []catalog.Category, q Query) []catalog.Product {
	names := categoryNames(categories)
	terms := splitTerms(q.Text)

	results := make([]catalog.Product, 0)
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		if !matchesFilter(&p, q) {
			continue
		}
		if len(terms) > 0 && !matchesTerms(&p, names, terms) {
			continue
		}
		results = append(results, p)
	}

	if q.Category == CategoryDiscounts {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].DiscountPercentage > results[j].DiscountPercentage
		})
	} else {
		rand.Shuffle(len(results), func(i, j int) {
			results[i], results[j] = results[j], results[i]
		})
	}
	return results
}

func matchesFilter(p *catalog.Product, q Query) bool {
	switch {
	case q.Category == CategoryDiscounts:
		return p.DiscountPercentage > 0
	case q.Category != "":
		if !p.HasCategory(q.Category) {
			return false
		}
		if q.Subcategory != "" && !p.HasSubcategory(q.Subcategory) {
			return false
		}
	}
	return true
}

// matchesTerms requires every term to appear somewhere in the product's name,
// description, category names, or option names. AND semantics, not OR.
func matchesTerms(p *catalog.Product, names map[string]string, terms []string) bool {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte(' ')
	b.WriteString(p.Description)
	for _, id := range p.Categories {
		b.WriteByte(' ')
		b.WriteString(names[id])
	}
	for _, id := range p.Subcategories {
		b.WriteByte(' ')
		b.WriteString(names[id])
	}
	for _, opt := range p.Options {
		b.WriteByte(' ')
		b.WriteString(opt.Name)
	}
	haystack := strings.ToLower(b.String())

	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func splitTerms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	return fields
}

// categoryNames maps category and subcategory IDs to display names.
func categoryNames(categories []catalog.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
		for _, sub := range c.Subcategories {
			names[sub.ID] = sub.Name
		}
	}
	return names
}
