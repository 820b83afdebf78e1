package config

import (
	"fmt"

	"github.com/danmuck/summarizer/internal/logging"
	"github.com/pelletier/go-toml/v2"
)

// LoggingOptions overlays the [log] section onto base.
func (c Config) LoggingOptions(base logging.Options) logging.Options {
	if lvl, ok := logging.ParseLevel(c.Log.Level); ok {
		base.Level = lvl
	}
	base.File = c.Log.File
	base.MaxSizeMB = c.Log.MaxSizeMB
	base.MaxBackups = c.Log.MaxBackups
	base.MaxAgeDays = c.Log.MaxAgeDays
	base.Compress = c.Log.Compress
	if c.Log.NoColor {
		base.NoColor = true
	}
	return base
}

type renderedConfig struct {
	Listen      string                      `toml:"listen"`
	CorsOrigins []string                    `toml:"cors_origins"`
	Log         renderedLog                 `toml:"log"`
	Upstreams   map[string]renderedUpstream `toml:"upstreams"`
	Locations   []renderedLocation          `toml:"locations"`
}

type renderedLog struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
	NoColor    bool   `toml:"no_color"`
}

type renderedUpstream struct {
	Servers []string `toml:"servers"`
}

type renderedLocation struct {
	Path           string   `toml:"path"`
	Pass           string   `toml:"pass"`
	ConnectTimeout string   `toml:"connect_timeout"`
	SendTimeout    string   `toml:"send_timeout"`
	ReadTimeout    string   `toml:"read_timeout"`
	BufferSize     int      `toml:"buffer_size"`
	NextUpstream   []string `toml:"next_upstream"`
	DefaultRatio   float64  `toml:"default_ratio"`
	DefaultType    string   `toml:"default_type"`
	FilenameArg    string   `toml:"filename_arg"`
	RatioArg       string   `toml:"ratio_arg"`
}

// Render writes the effective configuration with every location's merged
// directives spelled out. The output loads back to the same Config.
func Render(cfg Config) ([]byte, error) {
	out := renderedConfig{
		Listen:      cfg.Listen,
		CorsOrigins: cfg.CorsOrigins,
		Log:         renderedLog(cfg.Log),
		Upstreams:   make(map[string]renderedUpstream, len(cfg.Upstreams)),
		Locations:   make([]renderedLocation, 0, len(cfg.Locations)),
	}
	if out.CorsOrigins == nil {
		out.CorsOrigins = []string{}
	}
	for _, name := range UpstreamNames(cfg) {
		servers := make([]string, 0, len(cfg.Upstreams[name]))
		for _, srv := range cfg.Upstreams[name] {
			servers = append(servers, srv.String())
		}
		out.Upstreams[name] = renderedUpstream{Servers: servers}
	}
	for _, loc := range cfg.Locations {
		out.Locations = append(out.Locations, renderedLocation{
			Path:           loc.Path,
			Pass:           loc.Pass,
			ConnectTimeout: loc.Upstream.ConnectTimeout.String(),
			SendTimeout:    loc.Upstream.SendTimeout.String(),
			ReadTimeout:    loc.Upstream.ReadTimeout.String(),
			BufferSize:     loc.Upstream.BufferSize,
			NextUpstream:   loc.Upstream.NextUpstream.Words(),
			DefaultRatio:   float64(loc.DefaultRatio),
			DefaultType:    loc.DefaultType,
			FilenameArg:    loc.FilenameArg,
			RatioArg:       loc.RatioArg,
		})
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("config render failed: %w", err)
	}
	return data, nil
}
