package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// FilterState is what the shopper has chosen on a listing page.
type FilterState struct {
	Category models.Category
	Query    string
	Facets   FacetSelection
}

// NewFilterState starts on the "all" category with no query and no facets.
func NewFilterState() FilterState {
	return FilterState{Category: models.CategoryAll, Facets: FacetSelection{}}
}

// SetCategory switches category. Facet selections are cleared whenever the
// category actually changes.
func (s *FilterState) SetCategory(c models.Category) {
	if s.Category == c {
		return
	}
	s.Category = c
	s.Facets = FacetSelection{}
}

// ToggleFacet selects value for f, or deselects it if it was selected.
func (s *FilterState) ToggleFacet(f models.Facet, value string) {
	if s.Facets == nil {
		s.Facets = FacetSelection{}
	}
	if set, ok := s.Facets[f]; ok {
		if _, selected := set[value]; selected {
			delete(set, value)
			return
		}
	}
	s.Facets.Select(f, value)
}

// ClearFacets removes every facet selection.
func (s *FilterState) ClearFacets() {
	s.Facets = FacetSelection{}
}

// Apply runs FilterCatalog with this state.
func (s FilterState) Apply(products []models.Product) []models.Product {
	return FilterCatalog(products, s.Category, s.Query, s.Facets)
}

// ParseFilterState reads category, q and one parameter per facet name.
// Facet parameters may repeat or hold comma-separated values.
func ParseFilterState(values url.Values) (FilterState, error) {
	state := NewFilterState()

	if raw := strings.TrimSpace(values.Get("category")); raw != "" {
		c, ok := models.ParseCategory(raw)
		if !ok {
			return state, fmt.Errorf("unknown category %q", raw)
		}
		state.Category = c
	}
	state.Query = strings.TrimSpace(values.Get("q"))

	for key, params := range values {
		f, ok := models.ParseFacet(key)
		if !ok {
			continue
		}
		for _, param := range params {
			for _, v := range strings.Split(param, ",") {
				if v = strings.TrimSpace(v); v != "" {
					state.Facets.Select(f, v)
				}
			}
		}
	}
	return state, nil
}

// FacetOptions lists the distinct facet values present among the miniatures in
// products, sorted, for building filter controls.
func FacetOptions(products []models.Product) map[models.Facet][]string {
	seen := make(map[models.Facet]map[string]struct{}, len(models.Facets))
	for _, p := range products {
		if p.Category != models.CategoryMiniatures {
			continue
		}
		for _, f := range models.Facets {
			v, ok := p.FacetValue(f)
			if !ok {
				continue
			}
			if seen[f] == nil {
				seen[f] = make(map[string]struct{})
			}
			seen[f][v] = struct{}{}
		}
	}

	out := make(map[models.Facet][]string, len(models.Facets))
	for _, f := range models.Facets {
		values := make([]string, 0, len(seen[f]))
		for v := range seen[f] {
			values = append(values, v)
		}
		sort.Strings(values)
		out[f] = values
	}
	return out
}
