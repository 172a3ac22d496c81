package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

func rawWithTags(tags ...string) models.RawProduct {
	return models.RawProduct{
		ID:     "gid://shop/Product/1",
		Handle: "test-product",
		Title:  "Test Product",
		Tags:   tags,
	}
}

func TestMapProductMiniatureFacets(t *testing.T) {
	p := MapProduct(rawWithTags("category-miniatures", "class-wizards", "race-elves"))

	assert.Equal(t, models.CategoryMiniatures, p.Category)
	require.NotNil(t, p.CharacterClass)
	assert.Equal(t, "wizards", *p.CharacterClass)
	require.NotNil(t, p.Race)
	assert.Equal(t, "elves", *p.Race)
	assert.Nil(t, p.Faction)
	assert.Nil(t, p.UnitType)
	assert.Nil(t, p.BaseType)
}

func TestMapProductReplacesOnlyFirstHyphen(t *testing.T) {
	p := MapProduct(rawWithTags("category-miniatures", "class-death-knight", "faction-order-of-the-rose", "base-32mm-round"))

	require.NotNil(t, p.CharacterClass)
	assert.Equal(t, "death knight", *p.CharacterClass)
	require.NotNil(t, p.Faction)
	assert.Equal(t, "order of-the-rose", *p.Faction)
	require.NotNil(t, p.BaseType)
	assert.Equal(t, "32mm round", *p.BaseType)
}

func TestMapProductFirstTagWins(t *testing.T) {
	p := MapProduct(rawWithTags("class-rogues", "category-miniatures", "class-wizards", "category-books"))

	assert.Equal(t, models.CategoryMiniatures, p.Category)
	require.NotNil(t, p.CharacterClass)
	assert.Equal(t, "rogues", *p.CharacterClass)
}

func TestMapProductCategoryDefaults(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want models.Category
	}{
		{"no tags", nil, models.CategoryCoreGames},
		{"no category tag", []string{"class-wizards", "bestseller"}, models.CategoryCoreGames},
		{"unknown category", []string{"category-puzzles"}, models.CategoryCoreGames},
		{"all is not a category", []string{"category-all"}, models.CategoryCoreGames},
		{"hyphenated category kept verbatim", []string{"category-core-games"}, models.CategoryCoreGames},
		{"expansions", []string{"category-expansions"}, models.CategoryExpansions},
		{"digital", []string{"sale", "category-digital"}, models.CategoryDigital},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapProduct(rawWithTags(tt.tags...)).Category)
		})
	}
}

func TestMapProductNonMiniatureHasNoFacets(t *testing.T) {
	p := MapProduct(rawWithTags("category-books", "class-wizards", "race-elves"))

	assert.Equal(t, models.CategoryBooks, p.Category)
	assert.Nil(t, p.CharacterClass)
	assert.Nil(t, p.Race)
}

func TestMapProductIsIdempotent(t *testing.T) {
	raw := rawWithTags("category-miniatures", "class-death-knight", "race-high-elves", "faction-horde", "unit-hero", "base-25mm")

	first := MapProduct(raw)
	second := MapProduct(raw)
	assert.Equal(t, first, second)

	// Mapping a record rebuilt from the product's own tags yields the same facets.
	again := MapProduct(rawWithTags(first.Tags...))
	assert.Equal(t, first.Category, again.Category)
	assert.Equal(t, first.CharacterClass, again.CharacterClass)
	assert.Equal(t, first.Race, again.Race)
	assert.Equal(t, first.Faction, again.Faction)
	assert.Equal(t, first.UnitType, again.UnitType)
	assert.Equal(t, first.BaseType, again.BaseType)
}

func TestMapProductDoesNotAliasInput(t *testing.T) {
	raw := rawWithTags("category-miniatures")
	p := MapProduct(raw)
	raw.Tags[0] = "category-books"
	assert.Equal(t, "category-miniatures", p.Tags[0])
}

func TestMapProductCommercialFields(t *testing.T) {
	raw := models.RawProduct{
		ID:               "p1",
		Handle:           "dragon-box",
		Title:            "Dragon Box",
		AvailableForSale: true,
		PriceRange: models.RawPriceRange{
			MinVariantPrice: models.RawMoney{Amount: "39.99", CurrencyCode: "CAD"},
			MaxVariantPrice: models.RawMoney{Amount: "59.5", CurrencyCode: "CAD"},
		},
		CompareAtPriceRange: &models.RawPriceRange{
			MinVariantPrice: models.RawMoney{Amount: "49.99", CurrencyCode: "CAD"},
			MaxVariantPrice: models.RawMoney{Amount: "not-a-number", CurrencyCode: "CAD"},
		},
		FeaturedImage: &models.Image{URL: "https://cdn.example/dragon.png"},
		Images:        []models.Image{{URL: "https://cdn.example/dragon.png"}, {URL: "https://cdn.example/back.png"}},
		Variants: []models.RawVariant{
			{ID: "v1", Title: "Standard", AvailableForSale: true, Price: models.RawMoney{Amount: "39.99", CurrencyCode: "CAD"},
				SelectedOptions: []models.SelectedOption{{Name: "Edition", Value: "Standard"}}},
			{ID: "v2", Title: "Deluxe", Price: models.RawMoney{Amount: "59.50", CurrencyCode: "CAD"}},
		},
	}

	p := MapProduct(raw)

	assert.True(t, p.PriceRange.Min.Amount.Equal(decimal.RequireFromString("39.99")))
	assert.Equal(t, "59.50", p.PriceRange.Max.Display())
	require.NotNil(t, p.CompareAtPriceRange)
	assert.True(t, p.CompareAtPriceRange.Max.Amount.IsZero())
	assert.True(t, p.IsDiscounted())
	require.NotNil(t, p.FeaturedImage)
	assert.Len(t, p.Images, 2)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "Deluxe", p.Variants[1].Title)
	assert.False(t, p.Variants[1].AvailableForSale)

	assert.Equal(t, "Edition", p.Variants[0].SelectedOptions[0].Name)
}

func TestMapProductEmptyRecord(t *testing.T) {
	p := MapProduct(models.RawProduct{})
	assert.Equal(t, models.CategoryCoreGames, p.Category)
	assert.Nil(t, p.FeaturedImage)
	assert.Nil(t, p.CompareAtPriceRange)
	assert.Empty(t, p.Variants)
	assert.True(t, p.PriceRange.Min.Amount.IsZero())
}
