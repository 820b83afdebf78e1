package upstream

import (
	"bytes"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/protocol/stream"
)

// Response is an accepted daemon response. For summary responses Body yields
// exactly SummaryLength bytes and fails with io.ErrUnexpectedEOF if the
// daemon sends fewer; for other statuses Body is empty.
type Response struct {
	Server        Server
	Status        protocol.Status
	SummaryLength uint32
	Body          io.ReadCloser
}

func newResponse(srv Server, h protocol.ResponseHeader, v stream.View, conn net.Conn, stop func() bool, readTimeout time.Duration) *Response {
	resp := &Response{Server: srv, Status: h.Status}
	length, ok := h.Summary()
	if !ok {
		stop()
		_ = conn.Close()
		resp.Body = io.NopCloser(strings.NewReader(""))
		return resp
	}

	resp.SummaryLength = length
	leftover := v.Data[v.Pos+h.Size : v.Last]
	resp.Body = &body{
		r:         io.MultiReader(bytes.NewReader(leftover), &deadlineReader{conn: conn, timeout: readTimeout}),
		remaining: int64(length),
		conn:      conn,
		stop:      stop,
	}
	return resp
}

type body struct {
	r         io.Reader
	remaining int64
	conn      net.Conn
	stop      func() bool
	closeOnce sync.Once
	closeErr  error
}

func (b *body) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.r.Read(p)
	b.remaining -= int64(n)
	if err == io.EOF && b.remaining > 0 {
		return n, io.ErrUnexpectedEOF
	}
	if err == io.EOF {
		err = nil
	}
	return n, err
}

func (b *body) Close() error {
	b.closeOnce.Do(func() {
		b.stop()
		b.closeErr = b.conn.Close()
	})
	return b.closeErr
}

// deadlineReader refreshes the read deadline before every read.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	_ = d.conn.SetReadDeadline(time.Now().Add(d.timeout))
	return d.conn.Read(p)
}
