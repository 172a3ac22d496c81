// Package session keeps one cart machine per shopper session.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/gateway"
)

// StoreFactory returns the cart id slot of a session.
type StoreFactory func(sessionID string) cart.IDStore

type entry struct {
	machine  *cart.Machine
	lastSeen time.Time
}

// Manager hands out machines by session id and retires idle ones. A retired
// session keeps its cart: the next request restores it from the id slot.
type Manager struct {
	gw      gateway.CartGateway
	stores  StoreFactory
	idle    time.Duration
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*entry
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithIdleTimeout sets how long a machine may go unused before Sweep drops it.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idle = d }
}

func NewManager(gw gateway.CartGateway, stores StoreFactory, opts ...Option) *Manager {
	m := &Manager{
		gw:      gw,
		stores:  stores,
		idle:    30 * time.Minute,
		logger:  zap.NewNop(),
		now:     time.Now,
		entries: map[string]*entry{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Machine returns the session's machine, creating it if needed. It does not
// initialize it.
func (m *Manager) Machine(sessionID string) *cart.Machine {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sessionID]
	if !ok {
		e = &entry{machine: cart.New(m.gw, m.stores(sessionID), cart.WithLogger(m.logger.With(zap.String("session", sessionID))))}
		m.entries[sessionID] = e
	}
	e.lastSeen = m.now()
	return e.machine
}

// Ready returns the session's machine after making sure it is initialized.
func (m *Manager) Ready(ctx context.Context, sessionID string) (*cart.Machine, error) {
	machine := m.Machine(sessionID)
	if err := machine.Init(ctx); err != nil {
		return nil, err
	}
	return machine, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep closes and forgets machines idle for longer than the idle timeout.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idle)
	var stale []*cart.Machine

	m.mu.Lock()
	for id, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.machine)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, machine := range stale {
		machine.Close()
	}
	if len(stale) > 0 {
		m.logger.Debug("swept idle carts", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close closes every machine.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := m.entries
	m.entries = map[string]*entry{}
	m.mu.Unlock()
	for _, e := range entries {
		e.machine.Close()
	}
}
