package discount

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/storefront/internal/catalog"
)

func rule(id, kind, target string, pct int) catalog.DiscountRule {
	return catalog.DiscountRule{ID: id, Type: kind, TargetValue: target, Percentage: pct, IsActive: true}
}

func TestResolve_NoRules(t *testing.T) {
	got := Resolve(10000, []string{"makeup"}, nil, nil)
	assert.Equal(t, Resolution{Percentage: 0, UnitPrice: 10000}, got)
}

func TestResolve_MaxWins(t *testing.T) {
	// A 10% storewide rule and a 25% category rule overlap on the same
	// item: the result is the maximum, never the sum.
	rules := []catalog.DiscountRule{
		rule("d1", catalog.DiscountAllProducts, "", 10),
		rule("d2", catalog.DiscountByCategory, "makeup", 25),
	}

	got := Resolve(10000, []string{"makeup"}, nil, rules)

	assert.Equal(t, 25, got.Percentage)
	assert.Equal(t, 7500, got.UnitPrice)
}

func TestResolve_RuleApplicability(t *testing.T) {
	tests := []struct {
		name          string
		rules         []catalog.DiscountRule
		categories    []string
		subcategories []string
		wantPct       int
	}{
		{
			name:    "all products applies everywhere",
			rules:   []catalog.DiscountRule{rule("d1", catalog.DiscountAllProducts, "", 15)},
			wantPct: 15,
		},
		{
			name:       "category rule needs membership",
			rules:      []catalog.DiscountRule{rule("d1", catalog.DiscountByCategory, "perfume", 30)},
			categories: []string{"makeup"},
			wantPct:    0,
		},
		{
			name:          "subcategory rule matches",
			rules:         []catalog.DiscountRule{rule("d1", catalog.DiscountBySubcategory, "lipstick", 20)},
			subcategories: []string{"lipstick", "gloss"},
			wantPct:       20,
		},
		{
			name:    "inactive rule is ignored",
			rules:   []catalog.DiscountRule{{ID: "d1", Type: catalog.DiscountAllProducts, Percentage: 50}},
			wantPct: 0,
		},
		{
			name:    "unknown rule type is ignored",
			rules:   []catalog.DiscountRule{rule("d1", "flash_sale", "", 50)},
			wantPct: 0,
		},
		{
			name:       "empty target never matches membership",
			rules:      []catalog.DiscountRule{rule("d1", catalog.DiscountByCategory, "", 40)},
			categories: []string{""},
			wantPct:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(10000, tt.categories, tt.subcategories, tt.rules)
			assert.Equal(t, tt.wantPct, got.Percentage)
		})
	}
}

func TestResolve_OutOfRangePercentagesExcluded(t *testing.T) {
	// Out-of-range rules are dropped from the candidate set, not clamped:
	// with 150 and -5 excluded, the valid 10% rule wins.
	rules := []catalog.DiscountRule{
		rule("d1", catalog.DiscountAllProducts, "", 150),
		rule("d2", catalog.DiscountAllProducts, "", -5),
		rule("d3", catalog.DiscountAllProducts, "", 10),
	}

	got := Resolve(10000, nil, nil, rules)

	assert.Equal(t, 10, got.Percentage)
	assert.Equal(t, 9000, got.UnitPrice)
}

func TestResolve_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		price     int
		pct       int
		wantPrice int
	}{
		{"full discount floors at zero", 10000, 100, 0},
		{"rounds down below half", 999, 25, 749},
		{"rounds half up at boundary", 10, 25, 8},
		{"zero price stays zero", 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []catalog.DiscountRule{rule("d1", catalog.DiscountAllProducts, "", tt.pct)}
			got := Resolve(tt.price, nil, nil, rules)
			assert.Equal(t, tt.wantPrice, got.UnitPrice)
			assert.GreaterOrEqual(t, got.UnitPrice, 0)
		})
	}
}

func TestResolve_NegativePriceFallsBack(t *testing.T) {
	rules := []catalog.DiscountRule{rule("d1", catalog.DiscountAllProducts, "", 10)}
	got := Resolve(-100, nil, nil, rules)
	assert.Equal(t, Resolution{Percentage: 0, UnitPrice: -100}, got)
}

func TestResolve_Idempotent(t *testing.T) {
	// Resolving twice from the original price with the same rules gives
	// identical output; the resolver never feeds its own result back.
	rules := []catalog.DiscountRule{
		rule("d1", catalog.DiscountAllProducts, "", 10),
		rule("d2", catalog.DiscountByCategory, "makeup", 25),
	}

	first := Resolve(10000, []string{"makeup"}, nil, rules)
	second := Resolve(10000, []string{"makeup"}, nil, rules)

	assert.Equal(t, first, second)
}

func TestResolveProduct(t *testing.T) {
	p := &catalog.Product{
		ID:         "p1",
		Price:      10000,
		Categories: []string{"makeup"},
	}
	rules := []catalog.DiscountRule{
		rule("d1", catalog.DiscountAllProducts, "", 10),
		rule("d2", catalog.DiscountByCategory, "makeup", 25),
	}

	got := ResolveProduct(p, rules)

	assert.Equal(t, 25, got.Percentage)
	assert.Equal(t, 7500, got.UnitPrice)
}
