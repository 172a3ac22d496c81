package storefront

import (
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// connection is a GraphQL relay connection; only the nodes are kept.
type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type productNode struct {
	ID                  string                        `json:"id"`
	Handle              string                        `json:"handle"`
	Title               string                        `json:"title"`
	Description         string                        `json:"description"`
	Tags                []string                      `json:"tags"`
	AvailableForSale    bool                          `json:"availableForSale"`
	PriceRange          models.RawPriceRange          `json:"priceRange"`
	CompareAtPriceRange *models.RawPriceRange         `json:"compareAtPriceRange"`
	FeaturedImage       *models.Image                 `json:"featuredImage"`
	Images              connection[models.Image]      `json:"images"`
	Variants            connection[models.RawVariant] `json:"variants"`
}

func (n productNode) raw() models.RawProduct {
	return models.RawProduct{
		ID:                  n.ID,
		Handle:              n.Handle,
		Title:               n.Title,
		Description:         n.Description,
		Tags:                n.Tags,
		AvailableForSale:    n.AvailableForSale,
		PriceRange:          n.PriceRange,
		CompareAtPriceRange: n.CompareAtPriceRange,
		FeaturedImage:       n.FeaturedImage,
		Images:              n.Images.nodes(),
		Variants:            n.Variants.nodes(),
	}
}

type productsConnection struct {
	connection[productNode]
	PageInfo pageInfo `json:"pageInfo"`
}

func (c productsConnection) raws() []models.RawProduct {
	nodes := c.nodes()
	out := make([]models.RawProduct, len(nodes))
	for i, n := range nodes {
		out[i] = n.raw()
	}
	return out
}

type cartLineNode struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Cost     struct {
		TotalAmount models.RawMoney `json:"totalAmount"`
	} `json:"cost"`
	Merchandise struct {
		ID              string                  `json:"id"`
		Title           string                  `json:"title"`
		SelectedOptions []models.SelectedOption `json:"selectedOptions"`
		Product         struct {
			ID            string        `json:"id"`
			Handle        string        `json:"handle"`
			Title         string        `json:"title"`
			FeaturedImage *models.Image `json:"featuredImage"`
		} `json:"product"`
	} `json:"merchandise"`
}

type cartNode struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
	Cost          struct {
		SubtotalAmount models.RawMoney  `json:"subtotalAmount"`
		TotalAmount    models.RawMoney  `json:"totalAmount"`
		TotalTaxAmount *models.RawMoney `json:"totalTaxAmount"`
	} `json:"cost"`
	Lines connection[cartLineNode] `json:"lines"`
}

func (n *cartNode) cart() *models.Cart {
	c := &models.Cart{
		ID:            n.ID,
		CheckoutURL:   n.CheckoutURL,
		TotalQuantity: n.TotalQuantity,
		Cost: models.CartCost{
			Subtotal: models.ParseMoney(n.Cost.SubtotalAmount),
			Total:    models.ParseMoney(n.Cost.TotalAmount),
		},
	}
	if n.Cost.TotalTaxAmount != nil {
		tax := models.ParseMoney(*n.Cost.TotalTaxAmount)
		c.Cost.Tax = &tax
	}
	lines := n.Lines.nodes()
	c.Lines = make([]models.CartLine, len(lines))
	for i, l := range lines {
		c.Lines[i] = models.CartLine{
			ID:          l.ID,
			Quantity:    l.Quantity,
			TotalAmount: models.ParseMoney(l.Cost.TotalAmount),
			Merchandise: models.Merchandise{
				ID:              l.Merchandise.ID,
				Title:           l.Merchandise.Title,
				SelectedOptions: l.Merchandise.SelectedOptions,
				Product: models.ProductRef{
					ID:            l.Merchandise.Product.ID,
					Handle:        l.Merchandise.Product.Handle,
					Title:         l.Merchandise.Product.Title,
					FeaturedImage: l.Merchandise.Product.FeaturedImage,
				},
			},
		}
	}
	return c
}

// cartPayload is the common shape of every cart mutation result.
type cartPayload struct {
	Cart       *cartNode           `json:"cart"`
	UserErrors []gateway.UserError `json:"userErrors"`
}
