package upstream

import "time"

// DefaultBufferSize matches a typical page size.
const DefaultBufferSize = 4096

// BackoffConfig defines the delay between attempts on different servers.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines per-exchange timeouts, receive buffering and retry policy.
type Config struct {
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	ReadTimeout    time.Duration
	// BufferSize is the fixed receive buffer the response header must fit in.
	BufferSize   int
	NextUpstream NextUpstream
	Backoff      BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 60 * time.Second,
		SendTimeout:    60 * time.Second,
		ReadTimeout:    60 * time.Second,
		BufferSize:     DefaultBufferSize,
		NextUpstream:   NextError | NextTimeout,
		Backoff: BackoffConfig{
			InitialDelay: 0,
			Multiplier:   2.0,
			MaxDelay:     time.Second,
			Jitter:       false,
		},
	}
}

// WithDefaults fills zero values from DefaultConfig. NextUpstream is kept as
// given; an empty mask means never retry.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = def.SendTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	if c.Backoff.Multiplier == 0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	return c
}
