package frame

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/protocol/stream"
)

var (
	ErrShortHeader      = errors.New("frame: short fixed header")
	ErrFileNameTooLarge = errors.New("frame: file name too large")
	ErrSummaryTooLarge  = errors.New("frame: summary too large")
	ErrShortPayload     = errors.New("frame: short payload")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxFileNameBytes uint32
	MaxSummaryBytes  uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxFileNameBytes: 4 * 1024,
		MaxSummaryBytes:  64 * 1024 * 1024,
	}
}

// ReadRequest reads one complete request from r. The file name length is
// checked against limits before anything is allocated for it.
func ReadRequest(r io.Reader, limits Limits) (protocol.Request, error) {
	var fixed [protocol.RequestHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return protocol.Request{}, ErrShortHeader
		}
		return protocol.Request{}, err
	}

	nameLen := binary.BigEndian.Uint32(fixed[protocol.RequestHeaderLen-4:])
	if nameLen > limits.MaxFileNameBytes {
		return protocol.Request{}, ErrFileNameTooLarge
	}

	buf := make([]byte, protocol.RequestHeaderLen+int(nameLen))
	copy(buf, fixed[:])
	if nameLen > 0 {
		if _, err := io.ReadFull(r, buf[protocol.RequestHeaderLen:]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return protocol.Request{}, ErrShortPayload
			}
			return protocol.Request{}, err
		}
	}

	req, _, err := protocol.DecodeRequest(stream.View{Data: buf, Last: len(buf)})
	if err != nil {
		return protocol.Request{}, err
	}
	return req, nil
}

// WriteRequest writes req to w.
func WriteRequest(w io.Writer, req protocol.Request, limits Limits) error {
	if uint64(len(req.FileName)) > uint64(limits.MaxFileNameBytes) {
		return ErrFileNameTooLarge
	}
	buf, err := protocol.EncodeRequest(req)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// WriteResponse writes a response header followed, for summary responses,
// by the summary body. The summary is ignored for other statuses.
func WriteResponse(w io.Writer, status protocol.Status, summary []byte, limits Limits) error {
	h := protocol.ResponseHeader{Status: status}
	if status == protocol.StatusSummary {
		if uint64(len(summary)) > uint64(limits.MaxSummaryBytes) {
			return ErrSummaryTooLarge
		}
		h.SummaryLength = uint32(len(summary))
	}

	hb, err := protocol.EncodeResponseHeader(h)
	if err != nil {
		return err
	}
	if _, err := w.Write(hb); err != nil {
		return err
	}
	if h.SummaryLength > 0 {
		if _, err := w.Write(summary); err != nil {
			return err
		}
	}
	return nil
}

// ReadResponse reads one complete response from r. It is the blocking
// counterpart of the incremental header decoder, used by tools that own the
// whole connection.
func ReadResponse(r io.Reader, limits Limits) (protocol.ResponseHeader, []byte, error) {
	buf := make([]byte, protocol.MinHeaderLen)
	if _, err := io.ReadFull(r, buf[:protocol.BaseHeaderLen]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return protocol.ResponseHeader{}, nil, ErrShortHeader
		}
		return protocol.ResponseHeader{}, nil, err
	}

	n := protocol.BaseHeaderLen
	status := protocol.Status(binary.BigEndian.Uint32(buf[4:8]))
	if status == protocol.StatusSummary {
		if _, err := io.ReadFull(r, buf[protocol.BaseHeaderLen:]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return protocol.ResponseHeader{}, nil, ErrShortHeader
			}
			return protocol.ResponseHeader{}, nil, err
		}
		n = protocol.MinHeaderLen
	}

	h, err := protocol.DecodeResponseHeaderAtEOF(stream.View{Data: buf, Last: n})
	if err != nil {
		return protocol.ResponseHeader{}, nil, err
	}
	length, ok := h.Summary()
	if !ok {
		return h, nil, nil
	}
	if length > limits.MaxSummaryBytes {
		return protocol.ResponseHeader{}, nil, ErrSummaryTooLarge
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return protocol.ResponseHeader{}, nil, ErrShortPayload
		}
		return protocol.ResponseHeader{}, nil, err
	}
	return h, body, nil
}
