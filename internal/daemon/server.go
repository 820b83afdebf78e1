package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

var ErrServerClosed = errors.New("daemon: server closed")

type Config struct {
	Network string
	Addr    string
	Limits  frame.Limits
	// IOTimeout bounds reading the request and writing the response.
	IOTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Network:   "tcp",
		Addr:      "127.0.0.1:9400",
		Limits:    frame.DefaultLimits(),
		IOTimeout: 30 * time.Second,
	}
}

type Server struct {
	cfg     Config
	handler Handler

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	wg     sync.WaitGroup
	active atomic.Int64
}

func NewServer(cfg Config, handler Handler) *Server {
	def := DefaultConfig()
	if cfg.Network == "" {
		cfg.Network = def.Network
	}
	if cfg.Limits == (frame.Limits{}) {
		cfg.Limits = def.Limits
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = def.IOTimeout
	}
	return &Server{cfg: cfg, handler: handler}
}

// Listen binds the configured address. Serve calls it if needed; calling it
// first lets tests read Addr before serving.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen(s.cfg.Network, s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("daemon: listen %s %s: %w", s.cfg.Network, s.cfg.Addr, err)
	}
	s.ln = ln
	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is cancelled or Close is called, then
// waits for in-flight exchanges.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	log.Info().Str("network", s.cfg.Network).Str("addr", ln.Addr().String()).Msg("daemon listening")

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	active := s.active.Add(1)
	defer s.active.Add(-1)

	_ = conn.SetDeadline(time.Now().Add(s.cfg.IOTimeout))
	req, err := frame.ReadRequest(conn, s.cfg.Limits)
	if err != nil {
		if !rejectable(err) {
			log.Debug().Str("remote", remote).Err(err).Msg("daemon read request failed")
			return
		}
		log.Warn().Str("remote", remote).Err(err).Msg("daemon rejected request")
		s.respond(conn, remote, InvalidRequest())
		return
	}

	log.Debug().
		Str("remote", remote).
		Bytes("file_name", req.FileName).
		Float32("ratio", req.Ratio).
		Int64("active", active).
		Msg("daemon request")
	s.respond(conn, remote, s.handler.Summarize(ctx, req))
}

func (s *Server) respond(conn net.Conn, remote string, res Result) {
	if !res.Status.Valid() {
		log.Error().Str("remote", remote).Uint32("status", uint32(res.Status)).Msg("handler returned unknown status")
		res = InternalError()
	}
	err := frame.WriteResponse(conn, res.Status, res.Summary, s.cfg.Limits)
	if errors.Is(err, frame.ErrSummaryTooLarge) {
		log.Error().Str("remote", remote).Int("summary_bytes", len(res.Summary)).Msg("summary exceeds limit")
		res = InternalError()
		err = frame.WriteResponse(conn, res.Status, nil, s.cfg.Limits)
	}
	if err != nil {
		log.Warn().Str("remote", remote).Err(err).Msg("daemon write response failed")
		return
	}
	log.Debug().Str("remote", remote).Str("status", res.Status.String()).Int("summary_bytes", len(res.Summary)).Msg("daemon response")
}

// rejectable reports whether a read failure should be answered with
// InvalidRequest rather than a silent close.
func rejectable(err error) bool {
	return errors.Is(err, protocol.ErrInvalidRequest) || errors.Is(err, frame.ErrFileNameTooLarge)
}
