package cart

import "errors"

var (
	// ErrNotInitialized is returned by mutations issued before Init completed.
	// It signals a bug in the caller, not something a shopper can retry.
	ErrNotInitialized = errors.New("cart is not initialized")
	// ErrClosed is returned once the machine has been closed.
	ErrClosed = errors.New("cart machine is closed")

	ErrQuantityNegative = errors.New("quantity must not be negative")
	ErrVariantRequired  = errors.New("variant id is required")
	ErrLineRequired     = errors.New("line id is required")
)
