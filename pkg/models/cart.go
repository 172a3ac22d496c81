package models

// Cart models mirror the remote cart resource. They are replaced wholesale on
// every gateway round-trip and never patched locally.

// ProductRef is the owning product of a cart line, denormalized for display
type ProductRef struct {
	ID            string `json:"id"`
	Handle        string `json:"handle"`
	Title         string `json:"title"`
	FeaturedImage *Image `json:"featured_image,omitempty"`
}

// Merchandise is the variant a cart line points at
type Merchandise struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	SelectedOptions []SelectedOption `json:"selected_options"`
	Product         ProductRef       `json:"product"`
}

type CartLine struct {
	ID          string      `json:"id"`
	Quantity    int         `json:"quantity"`
	TotalAmount Money       `json:"total_amount"`
	Merchandise Merchandise `json:"merchandise"`
}

type CartCost struct {
	Subtotal Money  `json:"subtotal"`
	Tax      *Money `json:"tax,omitempty"`
	Total    Money  `json:"total"`
}

type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkout_url"`
	TotalQuantity int        `json:"total_quantity"`
	Cost          CartCost   `json:"cost"`
	Lines         []CartLine `json:"lines"`
}

// Clone returns a deep copy so readers cannot reach the owner's value.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Cost.Tax != nil {
		tax := *c.Cost.Tax
		out.Cost.Tax = &tax
	}
	out.Lines = make([]CartLine, len(c.Lines))
	for i, line := range c.Lines {
		line.Merchandise.SelectedOptions = append([]SelectedOption(nil), line.Merchandise.SelectedOptions...)
		if line.Merchandise.Product.FeaturedImage != nil {
			img := *line.Merchandise.Product.FeaturedImage
			line.Merchandise.Product.FeaturedImage = &img
		}
		out.Lines[i] = line
	}
	return &out
}

// LineQuantitySum adds up line quantities. It must agree with TotalQuantity.
func (c *Cart) LineQuantitySum() int {
	if c == nil {
		return 0
	}
	sum := 0
	for _, line := range c.Lines {
		sum += line.Quantity
	}
	return sum
}

// LineInput adds merchandise to a cart
type LineInput struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

// LineUpdate changes the quantity of an existing line
type LineUpdate struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type AddToCartRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

type CartPanelRequest struct {
	Open *bool `json:"open" binding:"required"`
}
