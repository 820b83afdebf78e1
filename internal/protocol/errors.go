package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrNeedMoreData   = errors.New("protocol: need more data")
	ErrInvalidHeader  = errors.New("protocol: invalid header")
	ErrInvalidRequest = errors.New("protocol: invalid request")
	ErrInvalidStatus  = errors.New("protocol: invalid status")
)

// Fault names the field that broke a message.
type Fault int

const (
	FaultTruncated Fault = iota + 1
	FaultMagic
	FaultVersion
	FaultStatus
)

func (f Fault) String() string {
	switch f {
	case FaultTruncated:
		return "truncated"
	case FaultMagic:
		return "bad magic"
	case FaultVersion:
		return "unsupported version"
	case FaultStatus:
		return "unknown status"
	default:
		return fmt.Sprintf("fault(%d)", int(f))
	}
}

// HeaderError reports a response header that can never decode. It matches
// ErrInvalidHeader under errors.Is.
type HeaderError struct {
	Fault Fault
	Value uint32
	Err   error
}

func (e *HeaderError) Error() string {
	if e.Fault == FaultTruncated {
		return "protocol: invalid header: truncated"
	}
	return fmt.Sprintf("protocol: invalid header: %s %#x", e.Fault, e.Value)
}

func (e *HeaderError) Is(target error) bool {
	return target == ErrInvalidHeader
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}

// RequestError reports a malformed request seen by the daemon side. It
// matches ErrInvalidRequest under errors.Is.
type RequestError struct {
	Fault Fault
	Value uint32
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("protocol: invalid request: %s %#x", e.Fault, e.Value)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}
