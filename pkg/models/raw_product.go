package models

// RawProduct is a catalog record as returned by a gateway, before category and
// facet derivation. It is also the MongoDB document and seed file shape.
type RawProduct struct {
	ID                  string         `json:"id" bson:"_id" yaml:"id"`
	Handle              string         `json:"handle" bson:"handle" yaml:"handle"`
	Title               string         `json:"title" bson:"title" yaml:"title"`
	Description         string         `json:"description" bson:"description" yaml:"description"`
	Tags                []string       `json:"tags" bson:"tags" yaml:"tags"`
	AvailableForSale    bool           `json:"availableForSale" bson:"available_for_sale" yaml:"available_for_sale"`
	PriceRange          RawPriceRange  `json:"priceRange" bson:"price_range" yaml:"price_range"`
	CompareAtPriceRange *RawPriceRange `json:"compareAtPriceRange,omitempty" bson:"compare_at_price_range,omitempty" yaml:"compare_at_price_range,omitempty"`
	FeaturedImage       *Image         `json:"featuredImage,omitempty" bson:"featured_image,omitempty" yaml:"featured_image,omitempty"`
	Images              []Image        `json:"images" bson:"images" yaml:"images"`
	Variants            []RawVariant   `json:"variants" bson:"variants" yaml:"variants"`
}

type RawVariant struct {
	ID               string           `json:"id" bson:"id" yaml:"id"`
	Title            string           `json:"title" bson:"title" yaml:"title"`
	AvailableForSale bool             `json:"availableForSale" bson:"available_for_sale" yaml:"available_for_sale"`
	Price            RawMoney         `json:"price" bson:"price" yaml:"price"`
	SelectedOptions  []SelectedOption `json:"selectedOptions" bson:"selected_options" yaml:"selected_options"`
}
