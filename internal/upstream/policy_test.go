package upstream

import (
	"testing"
	"time"

	"github.com/danmuck/summarizer/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
}

func TestParseNextUpstream(t *testing.T) {
	mask, err := ParseNextUpstream([]string{"error", " Timeout ", "invalid_response"})
	require.NoError(t, err)
	assert.True(t, mask.Allows(FailureError))
	assert.True(t, mask.Allows(FailureTimeout))
	assert.True(t, mask.Allows(FailureInvalidResponse))
	assert.False(t, mask.Allows(FailureInternalError))
	assert.Equal(t, "error|timeout|invalid_response", mask.String())

	off, err := ParseNextUpstream([]string{"error", "off", "timeout"})
	require.NoError(t, err)
	assert.Equal(t, NextOff, off)
	assert.False(t, off.Allows(FailureError))

	_, err = ParseNextUpstream([]string{"http_503"})
	assert.Error(t, err)

	notFound, err := ParseNextUpstream([]string{"not_found"})
	require.NoError(t, err)
	for _, kind := range []FailureKind{FailureError, FailureTimeout, FailureInvalidResponse, FailureInternalError} {
		assert.False(t, notFound.Allows(kind))
	}
}

func TestParseServer(t *testing.T) {
	srv, err := ParseServer("127.0.0.1:9400")
	require.NoError(t, err)
	assert.Equal(t, Server{Network: "tcp", Addr: "127.0.0.1:9400"}, srv)

	srv, err = ParseServer("unix:/run/smrzr.sock")
	require.NoError(t, err)
	assert.Equal(t, Server{Network: "unix", Addr: "/run/smrzr.sock"}, srv)
	assert.Equal(t, "unix:/run/smrzr.sock", srv.String())

	for _, raw := range []string{"", "unix:", "no-port"} {
		_, err := ParseServer(raw)
		assert.Error(t, err, raw)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{ReadTimeout: time.Second}.WithDefaults()
	assert.Equal(t, time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, DefaultBufferSize, cfg.BufferSize)
	assert.Equal(t, NextUpstream(0), cfg.NextUpstream)
}
