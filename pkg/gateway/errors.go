package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCartNotFound is returned when a cart id no longer resolves (expired or deleted).
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
)

// TransportError is a failure to complete a gateway call: network errors,
// unexpected HTTP statuses, undecodable bodies and query-level errors.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("gateway ")
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserError is a validation failure reported by the backend for a given input.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrors is the list of validation failures a mutation returned.
type UserErrors []UserError

func (e UserErrors) Error() string {
	if len(e) == 0 {
		return "gateway rejected input"
	}
	msgs := make([]string, len(e))
	for i, ue := range e {
		msgs[i] = ue.Message
	}
	return "gateway rejected input: " + strings.Join(msgs, "; ")
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsUserErrors extracts the validation failures carried by err.
func AsUserErrors(err error) (UserErrors, bool) {
	var ue UserErrors
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
