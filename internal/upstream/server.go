package upstream

import (
	"fmt"
	"net"
	"strings"
)

// Server is one summarizer daemon endpoint.
type Server struct {
	Network string
	Addr    string
}

// ParseServer accepts "host:port" for TCP and "unix:/path" for unix sockets.
func ParseServer(raw string) (Server, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Server{}, fmt.Errorf("upstream: empty server address")
	}
	if path, ok := strings.CutPrefix(raw, "unix:"); ok {
		if strings.TrimSpace(path) == "" {
			return Server{}, fmt.Errorf("upstream: empty unix socket path")
		}
		return Server{Network: "unix", Addr: path}, nil
	}
	if _, _, err := net.SplitHostPort(raw); err != nil {
		return Server{}, fmt.Errorf("upstream: invalid server %q: %w", raw, err)
	}
	return Server{Network: "tcp", Addr: raw}, nil
}

func (s Server) network() string {
	if s.Network == "" {
		return "tcp"
	}
	return s.Network
}

func (s Server) String() string {
	if s.network() == "unix" {
		return "unix:" + s.Addr
	}
	return s.Addr
}
