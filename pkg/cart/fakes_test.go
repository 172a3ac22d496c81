package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// fakeGateway keeps carts in memory. Responses are computed when a call
// arrives; gates let a test hold a response back before it is returned.
type fakeGateway struct {
	mu     sync.Mutex
	carts  map[string]*models.Cart
	nextID int

	createCalls int
	fetchCalls  int
	addCalls    int
	updateCalls int
	removeCalls int
	lastLines   []models.LineInput

	fetchErr  error
	createErr error
	addErr    error

	createGate chan struct{}
	addGates   map[int]chan struct{}
	addEntered chan int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{carts: map[string]*models.Cart{}, addGates: map[int]chan struct{}{}}
}

func (g *fakeGateway) seed(c *models.Cart) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.carts[c.ID] = c
}

func (g *fakeGateway) calls() (create, fetch, add int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls, g.fetchCalls, g.addCalls
}

func (g *fakeGateway) CreateCart(ctx context.Context) (*models.Cart, error) {
	g.mu.Lock()
	g.createCalls++
	gate := g.createGate
	err := g.createErr
	g.nextID++
	c := cartWith(fmt.Sprintf("cart-%d", g.nextID))
	if err == nil {
		g.carts[c.ID] = c
	}
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (g *fakeGateway) CartByID(ctx context.Context, cartID string) (*models.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCalls++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	c, ok := g.carts[cartID]
	if !ok {
		return nil, gateway.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (g *fakeGateway) AddCartLines(ctx context.Context, cartID string, lines []models.LineInput) (*models.Cart, error) {
	g.mu.Lock()
	g.addCalls++
	n := g.addCalls
	g.lastLines = lines
	gate := g.addGates[n]
	entered := g.addEntered
	err := g.addErr
	var resp *models.Cart
	if err == nil {
		c, ok := g.carts[cartID]
		if !ok {
			err = gateway.ErrCartNotFound
		} else {
			next := c.Clone()
			for _, l := range lines {
				next = withLine(next, l.MerchandiseID, l.Quantity)
			}
			g.carts[cartID] = next
			resp = next.Clone()
		}
	}
	g.mu.Unlock()

	if entered != nil {
		entered <- n
	}
	if gate != nil {
		<-gate
	}
	return resp, err
}

func (g *fakeGateway) UpdateCartLines(ctx context.Context, cartID string, lines []models.LineUpdate) (*models.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateCalls++
	c, ok := g.carts[cartID]
	if !ok {
		return nil, gateway.ErrCartNotFound
	}
	next := c.Clone()
	for _, u := range lines {
		for i := range next.Lines {
			if next.Lines[i].ID == u.ID {
				next.Lines[i].Quantity = u.Quantity
			}
		}
	}
	next = recount(next)
	g.carts[cartID] = next
	return next.Clone(), nil
}

func (g *fakeGateway) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*models.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeCalls++
	c, ok := g.carts[cartID]
	if !ok {
		return nil, gateway.ErrCartNotFound
	}
	next := c.Clone()
	kept := next.Lines[:0]
	for _, l := range next.Lines {
		drop := false
		for _, id := range lineIDs {
			if l.ID == id {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, l)
		}
	}
	next.Lines = kept
	next = recount(next)
	g.carts[cartID] = next
	return next.Clone(), nil
}

var unitPrice = decimal.RequireFromString("12.50")

func cartWith(id string) *models.Cart {
	zero := models.Money{Amount: decimal.Zero, CurrencyCode: "CAD"}
	return &models.Cart{
		ID:          id,
		CheckoutURL: "https://shop.example/cart/c/" + id + "?key=abc",
		Cost:        models.CartCost{Subtotal: zero, Total: zero},
		Lines:       []models.CartLine{},
	}
}

func withLine(c *models.Cart, variantID string, qty int) *models.Cart {
	for i := range c.Lines {
		if c.Lines[i].Merchandise.ID == variantID {
			c.Lines[i].Quantity += qty
			return recount(c)
		}
	}
	c.Lines = append(c.Lines, models.CartLine{
		ID:          "line-" + variantID,
		Quantity:    qty,
		Merchandise: models.Merchandise{ID: variantID, Title: "Default"},
	})
	return recount(c)
}

func recount(c *models.Cart) *models.Cart {
	c.TotalQuantity = 0
	total := decimal.Zero
	for i := range c.Lines {
		line := unitPrice.Mul(decimal.NewFromInt(int64(c.Lines[i].Quantity)))
		c.Lines[i].TotalAmount = models.Money{Amount: line, CurrencyCode: "CAD"}
		c.TotalQuantity += c.Lines[i].Quantity
		total = total.Add(line)
	}
	c.Cost.Subtotal = models.Money{Amount: total, CurrencyCode: "CAD"}
	c.Cost.Total = models.Money{Amount: total, CurrencyCode: "CAD"}
	return c
}

type memoryStore struct {
	mu      sync.Mutex
	id      string
	saves   []string
	loadErr error
	saveErr error
}

func (s *memoryStore) Load(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", false, s.loadErr
	}
	return s.id, s.id != "", nil
}

func (s *memoryStore) Save(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, id)
	if s.saveErr != nil {
		return s.saveErr
	}
	s.id = id
	return nil
}

func (s *memoryStore) current() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, len(s.saves)
}
