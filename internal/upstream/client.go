package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/danmuck/summarizer/internal/observability"
	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/protocol/stream"
	"github.com/rs/zerolog/log"
)

// Client runs summarize exchanges against one named group of servers.
// Each exchange uses its own connection; Client is safe for concurrent use.
type Client struct {
	name    string
	servers []Server
	cfg     Config
	next    atomic.Uint64
}

func NewClient(name string, servers []Server, cfg Config) (*Client, error) {
	if len(servers) == 0 {
		return nil, ErrNoServers
	}
	cfg = cfg.WithDefaults()
	if cfg.BufferSize < protocol.MinHeaderLen {
		return nil, fmt.Errorf("upstream: buffer size %d below minimum header length %d", cfg.BufferSize, protocol.MinHeaderLen)
	}
	return &Client{
		name:    name,
		servers: append([]Server(nil), servers...),
		cfg:     cfg,
	}, nil
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Config() Config {
	return c.cfg
}

// Summarize sends req and returns once a response header was accepted.
// Servers are tried round-robin; a failed attempt moves to the next server
// only when cfg.NextUpstream allows its failure kind. Once a header is
// accepted the exchange is never retried. The caller must close Body.
func (c *Client) Summarize(ctx context.Context, req protocol.Request) (*Response, error) {
	payload, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: encode request: %w", err)
	}

	var rng *rand.Rand
	if c.cfg.Backoff.Jitter {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	start := int(c.next.Add(1) - 1)
	var lastErr error
	for attempt := 0; attempt < len(c.servers); attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, NextBackoffDelay(c.cfg.Backoff, attempt, rng)); err != nil {
				return nil, err
			}
		}
		srv := c.servers[(start+attempt)%len(c.servers)]
		last := attempt+1 == len(c.servers)

		resp, err := c.exchange(ctx, srv, payload)
		if err == nil {
			if resp.Status == protocol.StatusInternalError && !last && c.cfg.NextUpstream.Allows(FailureInternalError) {
				_ = resp.Body.Close()
				lastErr = &ExchangeError{Server: srv, Kind: FailureInternalError, Err: errors.New("daemon reported internal error")}
				log.Warn().Str("upstream", c.name).Str("server", srv.String()).Msg("upstream internal error, trying next server")
				continue
			}
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		kind, _ := FailureOf(err)
		event := log.Warn().Str("upstream", c.name).Str("server", srv.String()).Str("failure", kind.String()).Err(err)
		if last || !c.cfg.NextUpstream.Allows(kind) {
			event.Msg("upstream exchange failed")
			return nil, err
		}
		event.Msg("upstream exchange failed, trying next server")
	}
	return nil, lastErr
}

func (c *Client) exchange(ctx context.Context, srv Server, payload []byte) (resp *Response, err error) {
	started := time.Now()
	defer func() {
		outcome := ""
		if err != nil {
			kind, _ := FailureOf(err)
			outcome = kind.String()
		} else {
			outcome = resp.Status.String()
		}
		observability.RecordUpstreamExchange(c.name, srv.String(), outcome, time.Since(started))
	}()

	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, srv.network(), srv.Addr)
	if err != nil {
		return nil, failure(srv, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	handedOff := false
	defer func() {
		if !handedOff {
			stop()
			_ = conn.Close()
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.SendTimeout))
	if _, err := conn.Write(payload); err != nil {
		return nil, failure(srv, err)
	}

	h, v, err := c.readHeader(conn, srv)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("upstream", c.name).
		Str("server", srv.String()).
		Str("status", h.Status.String()).
		Uint32("summary_length", h.SummaryLength).
		Msg("upstream header accepted")

	handedOff = true
	return newResponse(srv, h, v, conn, stop, c.cfg.ReadTimeout), nil
}

// readHeader grows one fixed receive buffer and re-runs the header decoder
// after every read until it yields a header or a protocol error.
func (c *Client) readHeader(conn net.Conn, srv Server) (protocol.ResponseHeader, stream.View, error) {
	v := stream.View{Data: make([]byte, c.cfg.BufferSize)}
	for {
		if v.Free() == 0 {
			return protocol.ResponseHeader{}, v, &ExchangeError{Server: srv, Kind: FailureInvalidResponse, Err: ErrHeaderTooLarge}
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		n, rerr := conn.Read(v.Data[v.Last:])
		v.Last += n

		if n > 0 {
			h, err := protocol.DecodeResponseHeader(v)
			if err == nil {
				return h, v, nil
			}
			if !errors.Is(err, protocol.ErrNeedMoreData) {
				return protocol.ResponseHeader{}, v, &ExchangeError{Server: srv, Kind: FailureInvalidResponse, Err: err}
			}
		}

		if rerr == nil {
			continue
		}
		if !errors.Is(rerr, io.EOF) {
			return protocol.ResponseHeader{}, v, failure(srv, rerr)
		}
		if v.Available() == 0 {
			return protocol.ResponseHeader{}, v, &ExchangeError{Server: srv, Kind: FailureError, Err: ErrUnexpectedResponse}
		}
		h, err := protocol.DecodeResponseHeaderAtEOF(v)
		if err != nil {
			return protocol.ResponseHeader{}, v, &ExchangeError{Server: srv, Kind: FailureInvalidResponse, Err: err}
		}
		return h, v, nil
	}
}

func failure(srv Server, err error) error {
	kind := FailureError
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = FailureTimeout
	}
	return &ExchangeError{Server: srv, Kind: kind, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
