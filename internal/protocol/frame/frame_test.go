package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/summarizer/internal/protocol"
)

func TestReadWriteRequestRoundTrip(t *testing.T) {
	in := protocol.Request{FileName: []byte("report.txt"), Ratio: 42}
	var buf bytes.Buffer
	if err := WriteRequest(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write request: %v", err)
	}
	out, err := ReadRequest(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if string(out.FileName) != "report.txt" || out.Ratio != 42 {
		t.Fatalf("request mismatch: %+v", out)
	}
}

func TestReadRequestMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := ReadRequest(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestReadRequestFileNameTooLarge(t *testing.T) {
	raw, err := protocol.EncodeRequest(protocol.Request{FileName: bytes.Repeat([]byte("a"), 64), Ratio: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = ReadRequest(bytes.NewReader(raw), Limits{MaxFileNameBytes: 16, MaxSummaryBytes: 16})
	if !errors.Is(err, ErrFileNameTooLarge) {
		t.Fatalf("expected ErrFileNameTooLarge, got %v", err)
	}
}

func TestReadRequestShortFileName(t *testing.T) {
	raw, _ := protocol.EncodeRequest(protocol.Request{FileName: []byte("abcdef"), Ratio: 1})
	_, err := ReadRequest(bytes.NewReader(raw[:len(raw)-2]), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestReadRequestBadVersion(t *testing.T) {
	raw, _ := protocol.EncodeRequest(protocol.Request{FileName: []byte("a"), Ratio: 1})
	raw[3] = 7
	_, err := ReadRequest(bytes.NewReader(raw), DefaultLimits())
	if !errors.Is(err, protocol.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestReadWriteResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, protocol.StatusSummary, []byte("short summary"), DefaultLimits()); err != nil {
		t.Fatalf("write response: %v", err)
	}
	if buf.Len() != protocol.MinHeaderLen+len("short summary") {
		t.Fatalf("unexpected wire size: %d", buf.Len())
	}
	h, body, err := ReadResponse(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if h.Status != protocol.StatusSummary || string(body) != "short summary" {
		t.Fatalf("response mismatch: %+v %q", h, body)
	}
}

func TestWriteResponseErrorStatusHasNoBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, protocol.StatusInternalError, []byte("ignored"), DefaultLimits()); err != nil {
		t.Fatalf("write response: %v", err)
	}
	want := []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("unexpected bytes: % x", buf.Bytes())
	}
	h, body, err := ReadResponse(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if h.Status != protocol.StatusInternalError || body != nil {
		t.Fatalf("unexpected response: %+v %q", h, body)
	}
}

func TestReadResponseShortBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, protocol.StatusSummary, []byte("0123456789"), DefaultLimits()); err != nil {
		t.Fatalf("write response: %v", err)
	}
	raw := buf.Bytes()[:buf.Len()-3]
	_, _, err := ReadResponse(bytes.NewReader(raw), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestReadResponseSummaryTooLarge(t *testing.T) {
	hb, _ := protocol.EncodeResponseHeader(protocol.ResponseHeader{Status: protocol.StatusSummary, SummaryLength: 1 << 30})
	_, _, err := ReadResponse(bytes.NewReader(hb), DefaultLimits())
	if !errors.Is(err, ErrSummaryTooLarge) {
		t.Fatalf("expected ErrSummaryTooLarge, got %v", err)
	}
}

func TestReadResponseUnknownStatus(t *testing.T) {
	raw := []byte{0x14, 0x21, 0x00, 0x01, 0x00, 0x00, 0x00, 0x07}
	_, _, err := ReadResponse(bytes.NewReader(raw), DefaultLimits())
	if !errors.Is(err, protocol.ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}
