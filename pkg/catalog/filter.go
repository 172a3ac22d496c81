package catalog

import (
	"strings"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// FacetSelection maps a facet to the set of values the shopper selected.
// A facet with an empty set places no constraint.
type FacetSelection map[models.Facet]map[string]struct{}

// Select adds values to the selection for f.
func (s FacetSelection) Select(f models.Facet, values ...string) {
	set, ok := s[f]
	if !ok {
		set = make(map[string]struct{}, len(values))
		s[f] = set
	}
	for _, v := range values {
		set[v] = struct{}{}
	}
}

// Active reports whether any facet has at least one selected value.
func (s FacetSelection) Active() bool {
	for _, set := range s {
		if len(set) > 0 {
			return true
		}
	}
	return false
}

// Clone copies the selection, dropping empty sets.
func (s FacetSelection) Clone() FacetSelection {
	out := make(FacetSelection, len(s))
	for f, set := range s {
		if len(set) == 0 {
			continue
		}
		cp := make(map[string]struct{}, len(set))
		for v := range set {
			cp[v] = struct{}{}
		}
		out[f] = cp
	}
	return out
}

// FilterCatalog returns the products visible for a category, a free-text query
// and a facet selection, in their original order. Stages run in order:
// category, text, then facets (miniatures only).
func FilterCatalog(products []models.Product, category models.Category, query string, facets FacetSelection) []models.Product {
	out := byCategory(products, category)
	out = byText(out, query)
	if category == models.CategoryMiniatures && facets.Active() {
		out = byFacets(out, facets)
	}
	return out
}

func byCategory(products []models.Product, category models.Category) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category == models.CategoryAll || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// byText is a plain substring match; the query is never compiled as a pattern.
func byText(products []models.Product, query string) []models.Product {
	if query == "" {
		return products
	}
	q := strings.ToLower(query)
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if matchesText(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matchesText(p models.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// byFacets drops anything that is not a miniature. A product without a value
// for a selected facet passes that facet.
func byFacets(products []models.Product, facets FacetSelection) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category != models.CategoryMiniatures {
			continue
		}
		if matchesFacets(p, facets) {
			out = append(out, p)
		}
	}
	return out
}

func matchesFacets(p models.Product, facets FacetSelection) bool {
	for f, selected := range facets {
		if len(selected) == 0 {
			continue
		}
		value, ok := p.FacetValue(f)
		if !ok {
			continue
		}
		if _, hit := selected[value]; !hit {
			return false
		}
	}
	return true
}
