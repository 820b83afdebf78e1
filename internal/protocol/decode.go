package protocol

import (
	"errors"

	"github.com/danmuck/summarizer/internal/protocol/stream"
)

// DecodeResponseHeader decodes the response header at the front of v.
//
// It returns ErrNeedMoreData while fewer than MinHeaderLen bytes are
// available; the caller retries with a larger view of the same buffer. Past
// that gate every failure is a *HeaderError (errors.Is ErrInvalidHeader) and
// is final for the exchange. v is never modified.
func DecodeResponseHeader(v stream.View) (ResponseHeader, error) {
	if v.Available() < MinHeaderLen {
		return ResponseHeader{}, ErrNeedMoreData
	}
	return decodeResponseHeader(v)
}

// DecodeResponseHeaderAtEOF decodes a header once the peer has stopped
// sending. No more bytes can arrive, so there is no length gate: an 8-byte
// InvalidRequest or InternalError header is complete, anything else short is
// an invalid header.
func DecodeResponseHeaderAtEOF(v stream.View) (ResponseHeader, error) {
	return decodeResponseHeader(v)
}

func decodeResponseHeader(v stream.View) (ResponseHeader, error) {
	s, err := stream.NewReader(v)
	if err != nil {
		return ResponseHeader{}, err
	}

	var h ResponseHeader
	if h.Magic, err = s.ReadUint16(); err != nil {
		return ResponseHeader{}, truncatedHeader(err)
	}
	if h.Version, err = s.ReadUint16(); err != nil {
		return ResponseHeader{}, truncatedHeader(err)
	}
	raw, err := s.ReadUint32()
	if err != nil {
		return ResponseHeader{}, truncatedHeader(err)
	}

	if h.Magic != Magic {
		return ResponseHeader{}, &HeaderError{Fault: FaultMagic, Value: uint32(h.Magic)}
	}
	if h.Version != Version {
		return ResponseHeader{}, &HeaderError{Fault: FaultVersion, Value: uint32(h.Version)}
	}

	switch status := Status(raw); status {
	case StatusSummary:
		n, err := s.ReadUint32()
		if err != nil {
			return ResponseHeader{}, truncatedHeader(err)
		}
		h.Status = status
		h.SummaryLength = n
	case StatusInvalidRequest:
		h.Status = status
	case StatusInternalError:
		h.Status = status
	default:
		return ResponseHeader{}, &HeaderError{Fault: FaultStatus, Value: raw}
	}

	h.Size = s.Consumed()
	return h, nil
}

func truncatedHeader(err error) error {
	return &HeaderError{Fault: FaultTruncated, Err: err}
}

// DecodeRequest decodes one request at the front of v and reports how many
// bytes it used. It returns ErrNeedMoreData until the whole request,
// including the file name, is available.
func DecodeRequest(v stream.View) (Request, int, error) {
	if v.Available() < RequestHeaderLen {
		return Request{}, 0, ErrNeedMoreData
	}
	s, err := stream.NewReader(v)
	if err != nil {
		return Request{}, 0, err
	}

	magic, err := s.ReadUint16()
	if err != nil {
		return Request{}, 0, ErrNeedMoreData
	}
	version, err := s.ReadUint16()
	if err != nil {
		return Request{}, 0, ErrNeedMoreData
	}
	if magic != Magic {
		return Request{}, 0, &RequestError{Fault: FaultMagic, Value: uint32(magic)}
	}
	if version != Version {
		return Request{}, 0, &RequestError{Fault: FaultVersion, Value: uint32(version)}
	}

	var req Request
	if req.Ratio, err = s.ReadFloat32(); err != nil {
		return Request{}, 0, ErrNeedMoreData
	}
	if req.FileName, err = s.ReadBytes(); err != nil {
		if errors.Is(err, stream.ErrTruncated) {
			return Request{}, 0, ErrNeedMoreData
		}
		return Request{}, 0, err
	}
	return req, s.Consumed(), nil
}
