package models

// Category is the closed set of storefront sections a product can belong to
type Category string

const (
	CategoryAll         Category = "all"
	CategoryCoreGames   Category = "core-games"
	CategoryExpansions  Category = "expansions"
	CategoryMiniatures  Category = "miniatures"
	CategoryBooks       Category = "books"
	CategoryAccessories Category = "accessories"
	CategoryDigital     Category = "digital"
)

// Categories lists every concrete category in display order. CategoryAll is not included.
var Categories = []Category{
	CategoryCoreGames,
	CategoryExpansions,
	CategoryMiniatures,
	CategoryBooks,
	CategoryAccessories,
	CategoryDigital,
}

// ParseCategory accepts a concrete category or "all".
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c == CategoryAll {
		return c, true
	}
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Facet names a miniature attribute derived from product tags
type Facet string

const (
	FacetCharacterClass Facet = "characterClass"
	FacetRace           Facet = "race"
	FacetFaction        Facet = "faction"
	FacetUnitType       Facet = "unitType"
	FacetBaseType       Facet = "baseType"
)

var Facets = []Facet{
	FacetCharacterClass,
	FacetRace,
	FacetFaction,
	FacetUnitType,
	FacetBaseType,
}

func ParseFacet(s string) (Facet, bool) {
	for _, f := range Facets {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

type Image struct {
	URL     string `json:"url" bson:"url" yaml:"url"`
	AltText string `json:"altText,omitempty" bson:"alt_text,omitempty" yaml:"alt_text,omitempty"`
	Width   int    `json:"width,omitempty" bson:"width,omitempty" yaml:"width,omitempty"`
	Height  int    `json:"height,omitempty" bson:"height,omitempty" yaml:"height,omitempty"`
}

// SelectedOption is one option pair of a variant, e.g. Size=28mm
type SelectedOption struct {
	Name  string `json:"name" bson:"name" yaml:"name"`
	Value string `json:"value" bson:"value" yaml:"value"`
}

// Variant is a purchasable version of a product
type Variant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	AvailableForSale bool             `json:"available_for_sale"`
	Price            Money            `json:"price"`
	SelectedOptions  []SelectedOption `json:"selected_options"`
}

// Product is a catalog entry with its derived category and facets. Values are
// produced by the mapper and never modified afterwards.
type Product struct {
	ID          string   `json:"id"`
	Handle      string   `json:"handle"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`

	Category       Category `json:"category"`
	CharacterClass *string  `json:"character_class,omitempty"`
	Race           *string  `json:"race,omitempty"`
	Faction        *string  `json:"faction,omitempty"`
	UnitType       *string  `json:"unit_type,omitempty"`
	BaseType       *string  `json:"base_type,omitempty"`

	PriceRange          PriceRange  `json:"price_range"`
	CompareAtPriceRange *PriceRange `json:"compare_at_price_range,omitempty"`
	AvailableForSale    bool        `json:"available_for_sale"`

	FeaturedImage *Image    `json:"featured_image,omitempty"`
	Images        []Image   `json:"images"`
	Variants      []Variant `json:"variants"`
}

// FacetValue returns the product's value for f, if it has one.
func (p Product) FacetValue(f Facet) (string, bool) {
	var v *string
	switch f {
	case FacetCharacterClass:
		v = p.CharacterClass
	case FacetRace:
		v = p.Race
	case FacetFaction:
		v = p.Faction
	case FacetUnitType:
		v = p.UnitType
	case FacetBaseType:
		v = p.BaseType
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

// IsDiscounted reports whether the compare-at price is above the current minimum price.
func (p Product) IsDiscounted() bool {
	if p.CompareAtPriceRange == nil {
		return false
	}
	return p.CompareAtPriceRange.Min.Amount.GreaterThan(p.PriceRange.Min.Amount)
}
