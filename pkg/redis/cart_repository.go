package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

const maxTxRetries = 5

// VariantLookup resolves a variant id to its product and variant records.
type VariantLookup interface {
	VariantByID(ctx context.Context, variantID string) (models.RawProduct, models.RawVariant, error)
}

// CartRepository is a CartGateway backed by Redis. Each cart is one JSON
// document; writes are optimistic transactions on that key.
type CartRepository struct {
	client       redisclient.UniversalClient
	variants     VariantLookup
	ttl          time.Duration
	checkoutBase string
	currency     string
	now          func() time.Time
	newID        func() string
}

type CartOption func(*CartRepository)

// WithCurrency sets the currency reported for empty carts.
func WithCurrency(code string) CartOption {
	return func(r *CartRepository) { r.currency = code }
}

func NewCartRepository(client redisclient.UniversalClient, variants VariantLookup, ttl time.Duration, checkoutBase string, opts ...CartOption) *CartRepository {
	r := &CartRepository{
		client:       client,
		variants:     variants,
		ttl:          ttl,
		checkoutBase: strings.TrimRight(checkoutBase, "/"),
		currency:     "CAD",
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ gateway.CartGateway = (*CartRepository)(nil)

type storedLine struct {
	ID          string             `json:"id"`
	Quantity    int                `json:"quantity"`
	UnitPrice   models.RawMoney    `json:"unit_price"`
	Merchandise models.Merchandise `json:"merchandise"`
}

type storedCart struct {
	ID        string       `json:"id"`
	Lines     []storedLine `json:"lines"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type resolvedLine struct {
	product  models.RawProduct
	variant  models.RawVariant
	quantity int
}

func storedCartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

func (r *CartRepository) CreateCart(ctx context.Context) (*models.Cart, error) {
	now := r.now().UTC()
	sc := storedCart{ID: r.newID(), Lines: []storedLine{}, CreatedAt: now, UpdatedAt: now}
	data, err := json.Marshal(sc)
	if err != nil {
		return nil, &gateway.TransportError{Op: "cartCreate", Err: err}
	}
	ok, err := r.client.SetNX(ctx, storedCartKey(sc.ID), data, r.ttl).Result()
	if err != nil {
		return nil, &gateway.TransportError{Op: "cartCreate", Err: err}
	}
	if !ok {
		return nil, &gateway.TransportError{Op: "cartCreate", Err: errors.New("cart id collision")}
	}
	return r.view(sc), nil
}

// CartByID returns the cart and extends its expiry.
func (r *CartRepository) CartByID(ctx context.Context, cartID string) (*models.Cart, error) {
	data, err := r.client.GetEx(ctx, storedCartKey(cartID), r.ttl).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return nil, gateway.ErrCartNotFound
	}
	if err != nil {
		return nil, &gateway.TransportError{Op: "getCart", Err: err}
	}
	var sc storedCart
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, &gateway.TransportError{Op: "getCart", Err: fmt.Errorf("decode cart %s: %w", cartID, err)}
	}
	return r.view(sc), nil
}

func (r *CartRepository) AddCartLines(ctx context.Context, cartID string, lines []models.LineInput) (*models.Cart, error) {
	resolved, err := r.resolve(ctx, lines)
	if err != nil {
		return nil, err
	}
	return r.update(ctx, "cartLinesAdd", cartID, func(sc *storedCart) error {
		mergeLines(sc, resolved, r.newID)
		return nil
	})
}

func (r *CartRepository) UpdateCartLines(ctx context.Context, cartID string, lines []models.LineUpdate) (*models.Cart, error) {
	var errs gateway.UserErrors
	for i, l := range lines {
		if l.Quantity < 0 {
			errs = append(errs, gateway.UserError{
				Field:   []string{"lines", strconv.Itoa(i), "quantity"},
				Message: "Quantity must not be negative",
				Code:    "INVALID",
			})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return r.update(ctx, "cartLinesUpdate", cartID, func(sc *storedCart) error {
		return applyUpdates(sc, lines)
	})
}

func (r *CartRepository) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*models.Cart, error) {
	return r.update(ctx, "cartLinesRemove", cartID, func(sc *storedCart) error {
		return removeLines(sc, lineIDs)
	})
}

// resolve validates added lines against the catalog.
func (r *CartRepository) resolve(ctx context.Context, lines []models.LineInput) ([]resolvedLine, error) {
	var errs gateway.UserErrors
	out := make([]resolvedLine, 0, len(lines))
	for i, l := range lines {
		idx := strconv.Itoa(i)
		if l.Quantity <= 0 {
			errs = append(errs, gateway.UserError{
				Field:   []string{"lines", idx, "quantity"},
				Message: "Quantity must be positive",
				Code:    "INVALID",
			})
			continue
		}
		product, variant, err := r.variants.VariantByID(ctx, l.MerchandiseID)
		if errors.Is(err, gateway.ErrProductNotFound) {
			errs = append(errs, gateway.UserError{
				Field:   []string{"lines", idx, "merchandiseId"},
				Message: fmt.Sprintf("The merchandise with id %s does not exist.", l.MerchandiseID),
				Code:    "INVALID",
			})
			continue
		}
		if err != nil {
			return nil, &gateway.TransportError{Op: "cartLinesAdd", Err: err}
		}
		if !variant.AvailableForSale {
			errs = append(errs, gateway.UserError{
				Field:   []string{"lines", idx, "merchandiseId"},
				Message: fmt.Sprintf("%s is not available for sale.", product.Title),
				Code:    "MERCHANDISE_NOT_AVAILABLE",
			})
			continue
		}
		out = append(out, resolvedLine{product: product, variant: variant, quantity: l.Quantity})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// update runs fn against the stored cart inside a WATCH transaction, retrying
// when another writer got there first.
func (r *CartRepository) update(ctx context.Context, op, cartID string, fn func(*storedCart) error) (*models.Cart, error) {
	key := storedCartKey(cartID)
	var result storedCart

	txf := func(tx *redisclient.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redisclient.Nil) {
			return gateway.ErrCartNotFound
		}
		if err != nil {
			return err
		}
		var sc storedCart
		if err := json.Unmarshal(data, &sc); err != nil {
			return fmt.Errorf("decode cart %s: %w", cartID, err)
		}
		if err := fn(&sc); err != nil {
			return err
		}
		sc.UpdatedAt = r.now().UTC()
		next, err := json.Marshal(sc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisclient.Pipeliner) error {
			pipe.Set(ctx, key, next, r.ttl)
			return nil
		})
		if err == nil {
			result = sc
		}
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return r.view(result), nil
		}
		if errors.Is(err, redisclient.TxFailedErr) {
			continue
		}
		var ue gateway.UserErrors
		if errors.Is(err, gateway.ErrCartNotFound) || errors.As(err, &ue) {
			return nil, err
		}
		return nil, &gateway.TransportError{Op: op, Err: err}
	}
	return nil, &gateway.TransportError{Op: op, Err: fmt.Errorf("cart %s: too many concurrent writers", cartID)}
}

// mergeLines adds quantity to an existing line for the same variant, or
// appends a new line.
func mergeLines(sc *storedCart, adds []resolvedLine, newID func() string) {
	for _, add := range adds {
		merged := false
		for i := range sc.Lines {
			if sc.Lines[i].Merchandise.ID == add.variant.ID {
				sc.Lines[i].Quantity += add.quantity
				sc.Lines[i].UnitPrice = add.variant.Price
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		sc.Lines = append(sc.Lines, storedLine{
			ID:          newID(),
			Quantity:    add.quantity,
			UnitPrice:   add.variant.Price,
			Merchandise: merchandiseOf(add.product, add.variant),
		})
	}
}

func applyUpdates(sc *storedCart, updates []models.LineUpdate) error {
	var errs gateway.UserErrors
	for i, u := range updates {
		idx := lineIndex(sc, u.ID)
		if idx < 0 {
			errs = append(errs, lineNotFound(i, u.ID))
			continue
		}
		sc.Lines[idx].Quantity = u.Quantity
	}
	if len(errs) > 0 {
		return errs
	}
	kept := sc.Lines[:0]
	for _, l := range sc.Lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	sc.Lines = kept
	return nil
}

func removeLines(sc *storedCart, lineIDs []string) error {
	var errs gateway.UserErrors
	drop := make(map[string]struct{}, len(lineIDs))
	for i, id := range lineIDs {
		if lineIndex(sc, id) < 0 {
			errs = append(errs, lineNotFound(i, id))
			continue
		}
		drop[id] = struct{}{}
	}
	if len(errs) > 0 {
		return errs
	}
	kept := sc.Lines[:0]
	for _, l := range sc.Lines {
		if _, ok := drop[l.ID]; !ok {
			kept = append(kept, l)
		}
	}
	sc.Lines = kept
	return nil
}

func lineIndex(sc *storedCart, lineID string) int {
	for i := range sc.Lines {
		if sc.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func lineNotFound(i int, lineID string) gateway.UserError {
	return gateway.UserError{
		Field:   []string{"lines", strconv.Itoa(i), "id"},
		Message: fmt.Sprintf("The cart line with id %s does not exist.", lineID),
		Code:    "INVALID",
	}
}

func merchandiseOf(product models.RawProduct, variant models.RawVariant) models.Merchandise {
	m := models.Merchandise{
		ID:              variant.ID,
		Title:           variant.Title,
		SelectedOptions: append([]models.SelectedOption(nil), variant.SelectedOptions...),
		Product: models.ProductRef{
			ID:     product.ID,
			Handle: product.Handle,
			Title:  product.Title,
		},
	}
	if product.FeaturedImage != nil {
		img := *product.FeaturedImage
		m.Product.FeaturedImage = &img
	}
	return m
}

// view derives the public cart. Tax is left unset; it is estimated at checkout.
func (r *CartRepository) view(sc storedCart) *models.Cart {
	currency := r.currency
	subtotal := decimal.Zero
	c := &models.Cart{
		ID:          sc.ID,
		CheckoutURL: r.checkoutBase + "/" + sc.ID,
		Lines:       make([]models.CartLine, len(sc.Lines)),
	}
	for i, l := range sc.Lines {
		unit := models.ParseMoney(l.UnitPrice)
		if unit.CurrencyCode != "" {
			currency = unit.CurrencyCode
		}
		total := unit.Amount.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(total)
		c.TotalQuantity += l.Quantity
		c.Lines[i] = models.CartLine{
			ID:          l.ID,
			Quantity:    l.Quantity,
			TotalAmount: models.Money{Amount: total, CurrencyCode: unit.CurrencyCode},
			Merchandise: l.Merchandise,
		}
	}
	c.Cost = models.CartCost{
		Subtotal: models.Money{Amount: subtotal, CurrencyCode: currency},
		Total:    models.Money{Amount: subtotal, CurrencyCode: currency},
	}
	return c
}
