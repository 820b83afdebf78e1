package protocol

import "fmt"

const (
	Magic   uint16 = 0x1421
	Version uint16 = 1

	// BaseHeaderLen covers magic, version and status.
	BaseHeaderLen = 2 + 2 + 4
	// MinHeaderLen is the largest response header: the Summary variant
	// carries a trailing summary length.
	MinHeaderLen = BaseHeaderLen + 4
	// RequestHeaderLen covers magic, version, ratio and the file name length.
	RequestHeaderLen = 2 + 2 + 4 + 4

	DefaultRatio float32 = 30.0
)

// Status is the daemon's classification of a request.
type Status uint32

const (
	StatusSummary        Status = 0
	StatusInvalidRequest Status = 1
	StatusInternalError  Status = 2
)

func (s Status) Valid() bool {
	switch s {
	case StatusSummary, StatusInvalidRequest, StatusInternalError:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusSummary:
		return "summary"
	case StatusInvalidRequest:
		return "invalid_request"
	case StatusInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("status(%d)", uint32(s))
	}
}

// Request asks the daemon to summarize one file. Ratio is the percentage of
// the source to keep; callers apply DefaultRatio before encoding.
type Request struct {
	FileName []byte
	Ratio    float32
}

// ResponseHeader is a decoded response header. SummaryLength is only
// meaningful when Status is StatusSummary; use Summary to read it.
type ResponseHeader struct {
	Magic         uint16
	Version       uint16
	Status        Status
	SummaryLength uint32
	// Size is the number of header bytes on the wire.
	Size int
}

// Summary returns the body length and true for summary responses.
func (h ResponseHeader) Summary() (uint32, bool) {
	if h.Status != StatusSummary {
		return 0, false
	}
	return h.SummaryLength, true
}
