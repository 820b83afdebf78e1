package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/summarizer/internal/protocol/stream"
)

func view(b []byte) stream.View {
	return stream.View{Data: b, Last: len(b)}
}

func TestEncodeRequestReportTxt(t *testing.T) {
	out, err := EncodeRequest(Request{FileName: []byte("report.txt"), Ratio: 30.0})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		0x14, 0x21, // magic
		0x00, 0x01, // version
		0x41, 0xf0, 0x00, 0x00, // float32(30.0)
		0x00, 0x00, 0x00, 0x0a, // file name length
		'r', 'e', 'p', 'o', 'r', 't', '.', 't', 'x', 't',
	}
	if !bytes.Equal(out, want) {
		t.Fatalf("encode mismatch:\n got=% x\nwant=% x", out, want)
	}
}

func TestEncodeRequestEmptyFileName(t *testing.T) {
	out, err := EncodeRequest(Request{Ratio: DefaultRatio})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(out) != RequestHeaderLen {
		t.Fatalf("unexpected length: %d", len(out))
	}
}

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		{FileName: []byte("report.txt"), Ratio: 30.0},
		{FileName: []byte{}, Ratio: 0},
		{FileName: []byte("docs/a b\x00c.md"), Ratio: 99.5},
		{FileName: bytes.Repeat([]byte("x"), 4096), Ratio: math.Float32frombits(0x7fc00123)},
	}
	for _, in := range cases {
		buf, err := EncodeRequest(in)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out, n, err := DecodeRequest(view(buf))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if n != len(buf) {
			t.Fatalf("consumed=%d want=%d", n, len(buf))
		}
		if !bytes.Equal(out.FileName, in.FileName) {
			t.Fatalf("file name mismatch: %q vs %q", out.FileName, in.FileName)
		}
		if math.Float32bits(out.Ratio) != math.Float32bits(in.Ratio) {
			t.Fatalf("ratio bits mismatch: %08x vs %08x", math.Float32bits(out.Ratio), math.Float32bits(in.Ratio))
		}
	}
}

func TestDecodeRequestIncremental(t *testing.T) {
	buf, err := EncodeRequest(Request{FileName: []byte("notes.txt"), Ratio: 10})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < len(buf); i++ {
		if _, _, err := DecodeRequest(view(buf[:i])); !errors.Is(err, ErrNeedMoreData) {
			t.Fatalf("prefix %d: expected ErrNeedMoreData, got %v", i, err)
		}
	}
}

func TestDecodeRequestBadMagic(t *testing.T) {
	buf, _ := EncodeRequest(Request{FileName: []byte("a"), Ratio: 1})
	buf[0] = 0xff
	_, _, err := DecodeRequest(view(buf))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Fault != FaultMagic {
		t.Fatalf("expected magic fault, got %v", err)
	}
}

func TestDecodeResponseHeaderSummary(t *testing.T) {
	b := []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00}
	h, err := DecodeResponseHeader(view(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	n, ok := h.Summary()
	if !ok || n != 256 {
		t.Fatalf("unexpected summary length: %d %v", n, ok)
	}
	if h.Size != MinHeaderLen {
		t.Fatalf("unexpected header size: %d", h.Size)
	}
}

func TestDecodeResponseHeaderGate(t *testing.T) {
	full := []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0xde, 0xad, 0xbe, 0xef}
	garbage := bytes.Repeat([]byte{0xff}, MinHeaderLen)
	for n := 0; n < MinHeaderLen; n++ {
		for _, src := range [][]byte{full, garbage} {
			if _, err := DecodeResponseHeader(view(src[:n])); !errors.Is(err, ErrNeedMoreData) {
				t.Fatalf("len %d: expected ErrNeedMoreData, got %v", n, err)
			}
		}
	}
}

func TestDecodeResponseHeaderTenBytes(t *testing.T) {
	_, err := DecodeResponseHeader(view(make([]byte, 10)))
	if !errors.Is(err, ErrNeedMoreData) {
		t.Fatalf("expected ErrNeedMoreData, got %v", err)
	}
}

func TestDecodeResponseHeaderBadVersion(t *testing.T) {
	b := []byte{0x14, 0x21, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10}
	_, err := DecodeResponseHeader(view(b))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
	var hdrErr *HeaderError
	if !errors.As(err, &hdrErr) || hdrErr.Fault != FaultVersion || hdrErr.Value != 2 {
		t.Fatalf("expected version fault, got %v", err)
	}
}

func TestDecodeResponseHeaderBadMagic(t *testing.T) {
	b := []byte{0x21, 0x14, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10}
	_, err := DecodeResponseHeader(view(b))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
	if errors.Is(err, ErrNeedMoreData) {
		t.Fatalf("protocol error must not read as need-more-data")
	}
}

func TestDecodeResponseHeaderStatuses(t *testing.T) {
	cases := []struct {
		raw      byte
		want     Status
		wantSize int
		wantErr  error
	}{
		{raw: 0, want: StatusSummary, wantSize: 12},
		{raw: 1, want: StatusInvalidRequest, wantSize: 8},
		{raw: 2, want: StatusInternalError, wantSize: 8},
		{raw: 3, wantErr: ErrInvalidHeader},
		{raw: 0xff, wantErr: ErrInvalidHeader},
	}
	for _, tc := range cases {
		b := []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, tc.raw, 0x00, 0x00, 0x00, 0x2a}
		h, err := DecodeResponseHeader(view(b))
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("status %d: expected %v, got %v", tc.raw, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("status %d: %v", tc.raw, err)
		}
		if h.Status != tc.want || h.Size != tc.wantSize {
			t.Fatalf("status %d: got %+v", tc.raw, h)
		}
		if _, ok := h.Summary(); ok != (tc.want == StatusSummary) {
			t.Fatalf("status %d: summary presence mismatch", tc.raw)
		}
	}
}

func TestDecodeResponseHeaderHonoursViewPos(t *testing.T) {
	data := make([]byte, 32)
	copy(data[4:], []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05})
	v := stream.View{Data: data, Pos: 4, Last: 16}
	h, err := DecodeResponseHeader(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.SummaryLength != 5 || h.Size != 12 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if v.Pos != 4 {
		t.Fatalf("view mutated")
	}
}

func TestDecodeResponseHeaderAtEOF(t *testing.T) {
	invalidReq := []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01}
	h, err := DecodeResponseHeaderAtEOF(view(invalidReq))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Status != StatusInvalidRequest || h.Size != BaseHeaderLen {
		t.Fatalf("unexpected header: %+v", h)
	}

	shortSummary := []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	_, err = DecodeResponseHeaderAtEOF(view(shortSummary))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
	if !errors.Is(err, stream.ErrTruncated) {
		t.Fatalf("expected wrapped ErrTruncated, got %v", err)
	}

	if _, err := DecodeResponseHeaderAtEOF(view(invalidReq[:5])); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestResponseHeaderRoundTrip(t *testing.T) {
	cases := []ResponseHeader{
		{Status: StatusSummary, SummaryLength: 1 << 20},
		{Status: StatusInvalidRequest},
		{Status: StatusInternalError},
	}
	for _, in := range cases {
		buf, err := EncodeResponseHeader(in)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out, err := DecodeResponseHeaderAtEOF(view(buf))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.Status != in.Status || out.SummaryLength != in.SummaryLength || out.Size != len(buf) {
			t.Fatalf("round-trip mismatch: in=%+v out=%+v", in, out)
		}
	}
}

func TestEncodeResponseHeaderRejectsUnknownStatus(t *testing.T) {
	if _, err := EncodeResponseHeader(ResponseHeader{Status: 9}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
