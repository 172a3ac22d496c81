package cart

import (
	"fmt"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

// Status is the lifecycle position of a Machine.
type Status int

const (
	StatusUninitialized Status = iota
	StatusInitializing
	StatusReady
	StatusMutating
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusMutating:
		return "mutating"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusUninitialized, StatusInitializing, StatusReady, StatusMutating} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown cart status %q", text)
}

// Snapshot is a read-only copy of the machine's published state. Version grows
// by one on every transition so listeners can drop snapshots that arrive late.
type Snapshot struct {
	Version uint64
	Status  Status
	Cart    *models.Cart
	Open    bool
	Err     error
}

// ItemCount is the cart's total quantity, or 0 without a cart.
func (s Snapshot) ItemCount() int {
	if s.Cart == nil {
		return 0
	}
	return s.Cart.TotalQuantity
}

// DisplayTotal is the cart total with two decimals, or "0.00" without a cart.
func (s Snapshot) DisplayTotal() string {
	if s.Cart == nil {
		return "0.00"
	}
	return s.Cart.Cost.Total.Display()
}

// CheckoutURL is the gateway-issued checkout link, exactly as received.
func (s Snapshot) CheckoutURL() string {
	if s.Cart == nil {
		return ""
	}
	return s.Cart.CheckoutURL
}
