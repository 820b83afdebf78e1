package upstream

import (
	"errors"
	"fmt"
)

var (
	ErrNoServers          = errors.New("upstream: no servers")
	ErrHeaderTooLarge     = errors.New("upstream: response header exceeds receive buffer")
	ErrUnexpectedResponse = errors.New("upstream: connection closed before a complete header")
)

// FailureKind classifies a failed exchange for next_upstream decisions.
type FailureKind int

const (
	FailureError FailureKind = iota + 1
	FailureTimeout
	FailureInvalidResponse
	FailureInternalError
)

func (k FailureKind) String() string {
	switch k {
	case FailureError:
		return "error"
	case FailureTimeout:
		return "timeout"
	case FailureInvalidResponse:
		return "invalid_response"
	case FailureInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// ExchangeError is one failed attempt against one server.
type ExchangeError struct {
	Server Server
	Kind   FailureKind
	Err    error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("upstream: %s: %s: %v", e.Server, e.Kind, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// FailureOf returns the failure kind carried by err, if any.
func FailureOf(err error) (FailureKind, bool) {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Kind, true
	}
	return 0, false
}
