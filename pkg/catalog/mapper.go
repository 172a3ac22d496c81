// Package catalog maps raw catalog records into products and filters product
// sets by category, free text and miniature facets.
package catalog

import (
	"strings"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// Tag prefixes that carry derived fields.
const (
	categoryPrefix = "category-"
	classPrefix    = "class-"
	racePrefix     = "race-"
	factionPrefix  = "faction-"
	unitPrefix     = "unit-"
	basePrefix     = "base-"
)

// MapProduct derives category and facet fields from raw.Tags and converts
// prices. It never fails: missing optional fields stay nil.
//
// For each prefix only the first matching tag counts. Facet values have the
// prefix removed and the first "-" of the remainder turned into a space, so
// "class-death-knight" yields "death knight" and "class-dark-elf-lord" yields
// "dark elf-lord".
func MapProduct(raw models.RawProduct) models.Product {
	p := models.Product{
		ID:               raw.ID,
		Handle:           raw.Handle,
		Title:            raw.Title,
		Description:      raw.Description,
		Tags:             append([]string(nil), raw.Tags...),
		Category:         categoryFromTags(raw.Tags),
		PriceRange:       models.ParsePriceRange(raw.PriceRange),
		AvailableForSale: raw.AvailableForSale,
		Images:           append([]models.Image(nil), raw.Images...),
		Variants:         make([]models.Variant, 0, len(raw.Variants)),
	}

	if raw.CompareAtPriceRange != nil {
		pr := models.ParsePriceRange(*raw.CompareAtPriceRange)
		p.CompareAtPriceRange = &pr
	}
	if raw.FeaturedImage != nil {
		img := *raw.FeaturedImage
		p.FeaturedImage = &img
	}
	for _, v := range raw.Variants {
		p.Variants = append(p.Variants, models.Variant{
			ID:               v.ID,
			Title:            v.Title,
			AvailableForSale: v.AvailableForSale,
			Price:            models.ParseMoney(v.Price),
			SelectedOptions:  append([]models.SelectedOption(nil), v.SelectedOptions...),
		})
	}

	if p.Category == models.CategoryMiniatures {
		p.CharacterClass = facetFromTags(raw.Tags, classPrefix)
		p.Race = facetFromTags(raw.Tags, racePrefix)
		p.Faction = facetFromTags(raw.Tags, factionPrefix)
		p.UnitType = facetFromTags(raw.Tags, unitPrefix)
		p.BaseType = facetFromTags(raw.Tags, basePrefix)
	}

	return p
}

// MapProducts maps every record, keeping order.
func MapProducts(raws []models.RawProduct) []models.Product {
	out := make([]models.Product, 0, len(raws))
	for _, raw := range raws {
		out = append(out, MapProduct(raw))
	}
	return out
}

func firstWithPrefix(tags []string, prefix string) (string, bool) {
	for _, tag := range tags {
		if strings.HasPrefix(tag, prefix) {
			return strings.TrimPrefix(tag, prefix), true
		}
	}
	return "", false
}

// categoryFromTags keeps the remainder verbatim since category values contain
// hyphens themselves. Unknown values fall back to core-games.
func categoryFromTags(tags []string) models.Category {
	value, ok := firstWithPrefix(tags, categoryPrefix)
	if !ok {
		return models.CategoryCoreGames
	}
	c, known := models.ParseCategory(value)
	if !known || c == models.CategoryAll {
		return models.CategoryCoreGames
	}
	return c
}

func facetFromTags(tags []string, prefix string) *string {
	value, ok := firstWithPrefix(tags, prefix)
	if !ok {
		return nil
	}
	value = strings.Replace(value, "-", " ", 1)
	return &value
}
