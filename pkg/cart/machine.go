// Package cart keeps a local view of one remote cart. The local value is only
// ever replaced by a complete cart returned from the gateway.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"julianmorley.ca/con-plar/storefront/pkg/gateway"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// IDStore is the durable slot holding the current cart id.
type IDStore interface {
	Load(ctx context.Context) (id string, ok bool, err error)
	Save(ctx context.Context, id string) error
}

// Machine owns a single cart. It is safe for concurrent use; the lock is never
// held across a gateway call.
type Machine struct {
	gw     gateway.CartGateway
	store  IDStore
	logger *zap.Logger
	inits  singleflight.Group

	mu        sync.Mutex
	status    Status
	cart      *models.Cart
	open      bool
	err       error
	version   uint64
	seq       uint64 // last mutation issued
	applied   uint64 // last mutation whose response was applied
	errSeq    uint64 // mutation that set err
	inflight  int
	closed    bool
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(Snapshot)
}

type Option func(*Machine)

func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

func New(gw gateway.CartGateway, store IDStore, opts ...Option) *Machine {
	m := &Machine{
		gw:     gw,
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init restores the persisted cart or creates a new one. Concurrent calls share
// one attempt; calling Init on a ready machine does nothing.
func (m *Machine) Init(ctx context.Context) error {
	_, err, _ := m.inits.Do("init", func() (interface{}, error) {
		return nil, m.initialize(ctx)
	})
	return err
}

func (m *Machine) initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.cart != nil {
		m.mu.Unlock()
		return nil
	}
	m.status = StatusInitializing
	snap := m.transitionLocked()
	m.mu.Unlock()
	m.publish(snap)

	c, err := m.restoreOrCreate(ctx)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return err
	}
	if err != nil {
		m.status = StatusUninitialized
		m.err = err
	} else {
		m.cart = c
		m.status = StatusReady
		m.err = nil
	}
	snap = m.transitionLocked()
	m.mu.Unlock()
	m.publish(snap)
	return err
}

func (m *Machine) restoreOrCreate(ctx context.Context) (*models.Cart, error) {
	id, ok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("could not read stored cart id", zap.Error(err))
		ok = false
	}

	if ok && id != "" {
		c, err := m.gw.CartByID(ctx, id)
		if err == nil && c != nil {
			m.logger.Debug("restored cart", zap.String("cart_id", c.ID))
			return c, nil
		}
		if err == nil {
			err = gateway.ErrCartNotFound
		}
		m.logger.Info("stored cart could not be restored, creating a new one",
			zap.String("cart_id", id),
			zap.Error(err))
	}

	c, err := m.gw.CreateCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("create cart: %w", &gateway.TransportError{Op: "cartCreate", Err: errors.New("response had no cart")})
	}
	if err := m.store.Save(ctx, c.ID); err != nil {
		// The cart still works for this session; it just will not survive a reload.
		m.logger.Warn("could not persist cart id", zap.String("cart_id", c.ID), zap.Error(err))
	}
	m.logger.Info("created cart", zap.String("cart_id", c.ID))
	return c, nil
}

// AddItem adds quantity of a variant. A quantity of 0 adds one. On success the
// whole cart is replaced and the panel opens; on failure the cart is untouched
// and the error is published.
func (m *Machine) AddItem(ctx context.Context, variantID string, quantity int) error {
	if err := m.requireReady(); err != nil {
		return err
	}
	if strings.TrimSpace(variantID) == "" {
		return ErrVariantRequired
	}
	if quantity < 0 {
		return ErrQuantityNegative
	}
	if quantity == 0 {
		quantity = 1
	}

	lines := []models.LineInput{{MerchandiseID: variantID, Quantity: quantity}}
	return m.mutate(ctx, "add item", true, func(ctx context.Context, cartID string) (*models.Cart, error) {
		return m.gw.AddCartLines(ctx, cartID, lines)
	})
}

// UpdateItem sets the quantity of a line. A quantity of 0 removes the line.
func (m *Machine) UpdateItem(ctx context.Context, lineID string, quantity int) error {
	if err := m.requireReady(); err != nil {
		return err
	}
	if strings.TrimSpace(lineID) == "" {
		return ErrLineRequired
	}
	if quantity < 0 {
		return ErrQuantityNegative
	}
	if quantity == 0 {
		return m.RemoveItem(ctx, lineID)
	}

	lines := []models.LineUpdate{{ID: lineID, Quantity: quantity}}
	return m.mutate(ctx, "update item", false, func(ctx context.Context, cartID string) (*models.Cart, error) {
		return m.gw.UpdateCartLines(ctx, cartID, lines)
	})
}

func (m *Machine) RemoveItem(ctx context.Context, lineID string) error {
	if err := m.requireReady(); err != nil {
		return err
	}
	if strings.TrimSpace(lineID) == "" {
		return ErrLineRequired
	}

	return m.mutate(ctx, "remove item", false, func(ctx context.Context, cartID string) (*models.Cart, error) {
		return m.gw.RemoveCartLines(ctx, cartID, []string{lineID})
	})
}

func (m *Machine) requireReady() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.cart == nil {
		return ErrNotInitialized
	}
	return nil
}

// mutate tags the call with a sequence number and applies the response only if
// no later mutation has been applied in the meantime.
func (m *Machine) mutate(ctx context.Context, op string, openOnSuccess bool, call func(context.Context, string) (*models.Cart, error)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.cart == nil {
		m.mu.Unlock()
		return ErrNotInitialized
	}
	m.seq++
	seq := m.seq
	cartID := m.cart.ID
	m.inflight++
	m.status = StatusMutating
	snap := m.transitionLocked()
	m.mu.Unlock()
	m.publish(snap)

	next, err := call(ctx, cartID)
	if err == nil && next == nil {
		err = &gateway.TransportError{Op: op, Err: errors.New("response had no cart")}
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return err
	}
	m.inflight--
	if m.inflight == 0 {
		m.status = StatusReady
	}
	switch {
	case seq <= m.applied:
		m.logger.Debug("discarding stale cart response",
			zap.String("op", op),
			zap.Uint64("seq", seq),
			zap.Uint64("applied", m.applied),
			zap.Error(err))
	case err != nil:
		m.logger.Warn("cart mutation failed", zap.String("op", op), zap.String("cart_id", cartID), zap.Error(err))
		if seq > m.errSeq {
			m.err = err
			m.errSeq = seq
		}
	default:
		m.cart = next
		m.applied = seq
		// A newer failure stays published and keeps the panel as it was.
		if seq > m.errSeq {
			m.err = nil
			if openOnSuccess {
				m.open = true
			}
		}
	}
	snap = m.transitionLocked()
	m.mu.Unlock()
	m.publish(snap)
	return err
}

// Snapshot returns the current published state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) ItemCount() int {
	return m.Snapshot().ItemCount()
}

func (m *Machine) DisplayTotal() string {
	return m.Snapshot().DisplayTotal()
}

func (m *Machine) CheckoutURL() string {
	return m.Snapshot().CheckoutURL()
}

func (m *Machine) OpenPanel() {
	m.SetPanelOpen(true)
}

func (m *Machine) ClosePanel() {
	m.SetPanelOpen(false)
}

func (m *Machine) TogglePanel() {
	m.mu.Lock()
	m.open = !m.open
	snap := m.transitionLocked()
	m.mu.Unlock()
	m.publish(snap)
}

// SetPanelOpen sets panel visibility. It has no effect on cart content.
func (m *Machine) SetPanelOpen(open bool) {
	m.mu.Lock()
	if m.open == open {
		m.mu.Unlock()
		return
	}
	m.open = open
	snap := m.transitionLocked()
	m.mu.Unlock()
	m.publish(snap)
}

// DismissError clears the published error after the UI has shown it.
func (m *Machine) DismissError() {
	m.mu.Lock()
	if m.err == nil {
		m.mu.Unlock()
		return
	}
	m.err = nil
	snap := m.transitionLocked()
	m.mu.Unlock()
	m.publish(snap)
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes it. Listeners run on the goroutine that caused the transition.
func (m *Machine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close detaches the machine. Calls still in flight return their own result
// but no longer change the machine's state.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.listeners = nil
}

func (m *Machine) transitionLocked() Snapshot {
	m.version++
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Version: m.version,
		Status:  m.status,
		Cart:    m.cart.Clone(),
		Open:    m.open,
		Err:     m.err,
	}
}

func (m *Machine) publish(snap Snapshot) {
	m.mu.Lock()
	ls := make([]listener, len(m.listeners))
	copy(ls, m.listeners)
	m.mu.Unlock()
	for _, l := range ls {
		l.fn(snap)
	}
}
