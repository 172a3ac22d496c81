// Package gateway defines the remote catalog and cart contract the storefront
// core talks to. The backend behind it is authoritative for prices,
// availability and cart totals.
package gateway

import (
	"context"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// MaxPageSize is the largest page a catalog query may request.
const MaxPageSize = 250

// CatalogGateway is the read side of the backend
type CatalogGateway interface {
	ProductByHandle(ctx context.Context, handle string) (models.RawProduct, error)
	Products(ctx context.Context, page PageRequest) (ProductPage, error)
	SearchProducts(ctx context.Context, query string, first int) ([]models.RawProduct, error)
}

// CartGateway manages remote carts. Every call returns the complete,
// authoritative cart after the operation.
type CartGateway interface {
	CreateCart(ctx context.Context) (*models.Cart, error)
	CartByID(ctx context.Context, cartID string) (*models.Cart, error)
	AddCartLines(ctx context.Context, cartID string, lines []models.LineInput) (*models.Cart, error)
	UpdateCartLines(ctx context.Context, cartID string, lines []models.LineUpdate) (*models.Cart, error)
	RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*models.Cart, error)
}

type Gateway interface {
	CatalogGateway
	CartGateway
}

type PageRequest struct {
	First int
	After string
}

type ProductPage struct {
	Products    []models.RawProduct
	EndCursor   string
	HasNextPage bool
}

// ClampPageSize bounds n to 1..MaxPageSize.
func ClampPageSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

type composite struct {
	CatalogGateway
	CartGateway
}

// Compose joins a catalog source and a cart source into one Gateway.
func Compose(catalog CatalogGateway, carts CartGateway) Gateway {
	return composite{CatalogGateway: catalog, CartGateway: carts}
}
