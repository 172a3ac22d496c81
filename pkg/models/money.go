package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency-tagged amount.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
}

// RawMoney is a money value as the gateway sends it: the amount is a decimal string.
type RawMoney struct {
	Amount       string `json:"amount" bson:"amount" yaml:"amount"`
	CurrencyCode string `json:"currencyCode" bson:"currency_code" yaml:"currency_code"`
}

// PriceRange represents the cheapest and most expensive variant prices of a product
type PriceRange struct {
	Min Money `json:"min"`
	Max Money `json:"max"`
}

type RawPriceRange struct {
	MinVariantPrice RawMoney `json:"minVariantPrice" bson:"min_variant_price" yaml:"min_variant_price"`
	MaxVariantPrice RawMoney `json:"maxVariantPrice" bson:"max_variant_price" yaml:"max_variant_price"`
}

// ParseMoney converts a raw money value. Unparseable amounts become zero.
func ParseMoney(raw RawMoney) Money {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw.Amount))
	if err != nil {
		amount = decimal.Zero
	}
	return Money{Amount: amount, CurrencyCode: raw.CurrencyCode}
}

// Display formats the amount with two decimal places, without currency.
func (m Money) Display() string {
	return m.Amount.StringFixed(2)
}

func ParsePriceRange(raw RawPriceRange) PriceRange {
	return PriceRange{
		Min: ParseMoney(raw.MinVariantPrice),
		Max: ParseMoney(raw.MaxVariantPrice),
	}
}
