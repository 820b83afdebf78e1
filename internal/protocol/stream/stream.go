package stream

import (
	"encoding/binary"
	"errors"
	"math"
)

// MaxCapacity bounds owned allocations and accepted length prefixes.
const MaxCapacity = 1 << 30

const (
	size16 = 2
	size32 = 4
)

var (
	ErrAllocationFailed = errors.New("stream: allocation failed")
	ErrBufferFull       = errors.New("stream: buffer full")
	ErrTruncated        = errors.New("stream: truncated data")
	ErrInvalidView      = errors.New("stream: invalid view")
)

// View is a window over caller-owned bytes. Data[Pos:Last] holds the unread
// bytes and Data[Last:] is free space for whoever produces into the buffer.
type View struct {
	Data []byte
	Pos  int
	Last int
}

// Available returns the number of unread bytes.
func (v View) Available() int {
	return v.Last - v.Pos
}

// Free returns the space left after the valid data.
func (v View) Free() int {
	return len(v.Data) - v.Last
}

// Bytes returns the unread bytes without copying.
func (v View) Bytes() []byte {
	return v.Data[v.Pos:v.Last]
}

func (v View) valid() bool {
	return v.Pos >= 0 && v.Pos <= v.Last && v.Last <= len(v.Data)
}

// Stream is a bounds-checked cursor pair over one buffer.
//
// The buffer spans [0, len(buf)); cursors always satisfy
// 0 <= rpos <= wpos <= len(buf). Every operation either completes or leaves
// both cursors untouched.
type Stream struct {
	buf   []byte
	rpos  int
	wpos  int
	mark  int
	owned bool
}

// NewWriter allocates an owned stream of exactly capacity bytes.
func NewWriter(capacity int) (*Stream, error) {
	if capacity < 0 || capacity > MaxCapacity {
		return nil, ErrAllocationFailed
	}
	return &Stream{buf: make([]byte, capacity), owned: true}, nil
}

// NewReader attaches a stream to caller-owned bytes. The stream never copies
// v.Data and must not outlive it.
func NewReader(v View) (*Stream, error) {
	if !v.valid() {
		return nil, ErrInvalidView
	}
	return &Stream{buf: v.Data, rpos: v.Pos, wpos: v.Last, mark: v.Pos}, nil
}

// Owned reports whether the stream allocated its buffer.
func (s *Stream) Owned() bool {
	return s.owned
}

// Capacity returns the size of the underlying buffer.
func (s *Stream) Capacity() int {
	return len(s.buf)
}

// Written returns how many bytes precede the write cursor.
func (s *Stream) Written() int {
	return s.wpos
}

// Consumed returns how many bytes were read since the stream was created.
func (s *Stream) Consumed() int {
	return s.rpos - s.mark
}

// Buffered returns the number of bytes available to read.
func (s *Stream) Buffered() int {
	return s.wpos - s.rpos
}

// ReadPos returns the absolute read cursor.
func (s *Stream) ReadPos() int {
	return s.rpos
}

// WritePos returns the absolute write cursor.
func (s *Stream) WritePos() int {
	return s.wpos
}

// Bytes returns the produced bytes. For owned streams the slice is handed
// over to the caller; for borrowed streams it aliases the caller's buffer.
func (s *Stream) Bytes() []byte {
	return s.buf[:s.wpos]
}

func (s *Stream) free() int {
	return len(s.buf) - s.wpos
}

func (s *Stream) WriteUint16(v uint16) error {
	if s.free() < size16 {
		return ErrBufferFull
	}
	binary.BigEndian.PutUint16(s.buf[s.wpos:], v)
	s.wpos += size16
	return nil
}

func (s *Stream) WriteUint32(v uint32) error {
	if s.free() < size32 {
		return ErrBufferFull
	}
	binary.BigEndian.PutUint32(s.buf[s.wpos:], v)
	s.wpos += size32
	return nil
}

// WriteFloat32 writes the IEEE-754 bit pattern of v, big-endian.
func (s *Stream) WriteFloat32(v float32) error {
	return s.WriteUint32(math.Float32bits(v))
}

// WriteBytes writes a 4-byte big-endian length followed by p. Nothing is
// written unless both fit.
func (s *Stream) WriteBytes(p []byte) error {
	free := s.free()
	if free < size32 || uint64(len(p)) > uint64(free-size32) {
		return ErrBufferFull
	}
	binary.BigEndian.PutUint32(s.buf[s.wpos:], uint32(len(p)))
	copy(s.buf[s.wpos+size32:], p)
	s.wpos += size32 + len(p)
	return nil
}

func (s *Stream) ReadUint16() (uint16, error) {
	if s.Buffered() < size16 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint16(s.buf[s.rpos:])
	s.rpos += size16
	return v, nil
}

func (s *Stream) ReadUint32() (uint32, error) {
	if s.Buffered() < size32 {
		return 0, ErrTruncated
	}
	v := binary.BigEndian.Uint32(s.buf[s.rpos:])
	s.rpos += size32
	return v, nil
}

// ReadFloat32 reads a big-endian IEEE-754 bit pattern.
func (s *Stream) ReadFloat32() (float32, error) {
	bits, err := s.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadBytes reads a length-prefixed byte string and returns an owned copy.
// The length prefix and the payload must both be available before the read
// cursor moves.
func (s *Stream) ReadBytes() ([]byte, error) {
	avail := s.Buffered()
	if avail < size32 {
		return nil, ErrTruncated
	}
	n := binary.BigEndian.Uint32(s.buf[s.rpos:])
	if n > MaxCapacity || uint64(n) > uint64(avail-size32) {
		return nil, ErrTruncated
	}
	start := s.rpos + size32
	out := make([]byte, n)
	copy(out, s.buf[start:start+int(n)])
	s.rpos = start + int(n)
	return out, nil
}
