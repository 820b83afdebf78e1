package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/summarizer/internal/logging"
	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/danmuck/summarizer/internal/upstream"
)

const (
	DefaultListen      = ":8080"
	DefaultFilenameArg = "smrzr_filename"
	DefaultRatioArg    = "smrzr_ratio"
	DefaultType        = "text/plain"
)

// ReservedPaths are served by the gateway itself.
var ReservedPaths = []string{"/health", "/ready", "/metrics"}

// Config is the resolved gateway configuration. Every location carries its
// fully merged directives.
type Config struct {
	Listen      string
	CorsOrigins []string
	Log         LogConfig
	Upstreams   map[string][]upstream.Server
	Locations   []Location
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	NoColor    bool
}

// Location is one summarize endpoint bound to an upstream group.
type Location struct {
	Path         string
	Pass         string
	Upstream     upstream.Config
	DefaultRatio float32
	DefaultType  string
	FilenameArg  string
	RatioArg     string
}

// Directives may appear under [http] and inside any [[locations]] entry.
// Nil means unset.
type Directives struct {
	ConnectTimeout *string  `toml:"connect_timeout"`
	SendTimeout    *string  `toml:"send_timeout"`
	ReadTimeout    *string  `toml:"read_timeout"`
	BufferSize     *int     `toml:"buffer_size"`
	NextUpstream   []string `toml:"next_upstream"`
	DefaultRatio   *float64 `toml:"default_ratio"`
	DefaultType    *string  `toml:"default_type"`
	FilenameArg    *string  `toml:"filename_arg"`
	RatioArg       *string  `toml:"ratio_arg"`
}

type fileConfig struct {
	Listen      string                     `toml:"listen"`
	CorsOrigins []string                   `toml:"cors_origins"`
	Log         logSection                 `toml:"log"`
	HTTP        Directives                 `toml:"http"`
	Upstreams   map[string]upstreamSection `toml:"upstreams"`
	Locations   []locationSection          `toml:"locations"`
}

type logSection struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
	NoColor    bool   `toml:"no_color"`
}

type upstreamSection struct {
	Servers []string `toml:"servers"`
}

type locationSection struct {
	Path string `toml:"path"`
	Pass string `toml:"pass"`
	Directives
}

func Default() Config {
	return Config{
		Listen:    DefaultListen,
		Log:       LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 28},
		Upstreams: map[string][]upstream.Server{},
	}
}

func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := resolve(raw, meta)
	if err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse resolves a config held in memory.
func Parse(data string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	return resolve(raw, meta)
}

func resolve(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	cfg := Default()
	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	applyLog(&cfg.Log, raw.Log, meta)

	for name, section := range raw.Upstreams {
		servers := make([]upstream.Server, 0, len(section.Servers))
		for _, rawServer := range section.Servers {
			srv, err := upstream.ParseServer(rawServer)
			if err != nil {
				return Config{}, fmt.Errorf("upstream %q: %w", name, err)
			}
			servers = append(servers, srv)
		}
		cfg.Upstreams[name] = servers
	}

	for i, section := range raw.Locations {
		loc, err := mergeLocation(section, raw.HTTP)
		if err != nil {
			return Config{}, fmt.Errorf("location[%d] %s: %w", i, section.Path, err)
		}
		cfg.Locations = append(cfg.Locations, loc)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyLog(dst *LogConfig, raw logSection, meta toml.MetaData) {
	if meta.IsDefined("log", "level") {
		dst.Level = strings.TrimSpace(raw.Level)
	}
	if meta.IsDefined("log", "file") {
		dst.File = strings.TrimSpace(raw.File)
	}
	if meta.IsDefined("log", "max_size_mb") {
		dst.MaxSizeMB = raw.MaxSizeMB
	}
	if meta.IsDefined("log", "max_backups") {
		dst.MaxBackups = raw.MaxBackups
	}
	if meta.IsDefined("log", "max_age_days") {
		dst.MaxAgeDays = raw.MaxAgeDays
	}
	if meta.IsDefined("log", "compress") {
		dst.Compress = raw.Compress
	}
	if meta.IsDefined("log", "no_color") {
		dst.NoColor = raw.NoColor
	}
}

// mergeLocation applies location values, then [http] values, then built-in
// defaults.
func mergeLocation(section locationSection, http Directives) (Location, error) {
	loc := Location{
		Path:         strings.TrimSpace(section.Path),
		Pass:         strings.TrimSpace(section.Pass),
		Upstream:     upstream.DefaultConfig(),
		DefaultRatio: protocol.DefaultRatio,
		DefaultType:  pick(section.DefaultType, http.DefaultType, DefaultType),
		FilenameArg:  pick(section.FilenameArg, http.FilenameArg, DefaultFilenameArg),
		RatioArg:     pick(section.RatioArg, http.RatioArg, DefaultRatioArg),
	}

	durations := []struct {
		key       string
		loc, http *string
		dst       *time.Duration
	}{
		{"connect_timeout", section.ConnectTimeout, http.ConnectTimeout, &loc.Upstream.ConnectTimeout},
		{"send_timeout", section.SendTimeout, http.SendTimeout, &loc.Upstream.SendTimeout},
		{"read_timeout", section.ReadTimeout, http.ReadTimeout, &loc.Upstream.ReadTimeout},
	}
	for _, d := range durations {
		raw := pick(d.loc, d.http, "")
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return Location{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	loc.Upstream.BufferSize = pick(section.BufferSize, http.BufferSize, upstream.DefaultBufferSize)

	words := section.NextUpstream
	if words == nil {
		words = http.NextUpstream
	}
	if words != nil {
		mask, err := upstream.ParseNextUpstream(words)
		if err != nil {
			return Location{}, err
		}
		loc.Upstream.NextUpstream = mask
	}

	if section.DefaultRatio != nil || http.DefaultRatio != nil {
		loc.DefaultRatio = float32(pick(section.DefaultRatio, http.DefaultRatio, 0))
	}
	return loc, nil
}

func pick[T any](loc, http *T, def T) T {
	if loc != nil {
		return *loc
	}
	if http != nil {
		return *http
	}
	return def
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Listen) == "" {
		return fmt.Errorf("listen is required")
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log level %q unknown", cfg.Log.Level)
	}
	for _, name := range UpstreamNames(cfg) {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("upstream name is required")
		}
		if len(cfg.Upstreams[name]) == 0 {
			return fmt.Errorf("upstream %q has no servers", name)
		}
	}
	if len(cfg.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	seen := make(map[string]struct{}, len(cfg.Locations))
	for i, loc := range cfg.Locations {
		if err := ValidateLocation(cfg, loc); err != nil {
			return fmt.Errorf("location[%d] %s: %w", i, loc.Path, err)
		}
		if _, dup := seen[loc.Path]; dup {
			return fmt.Errorf("location[%d] %s: duplicate path", i, loc.Path)
		}
		seen[loc.Path] = struct{}{}
	}
	return nil
}

func ValidateLocation(cfg Config, loc Location) error {
	if !strings.HasPrefix(loc.Path, "/") {
		return fmt.Errorf("path must start with /")
	}
	for _, reserved := range ReservedPaths {
		if loc.Path == reserved {
			return fmt.Errorf("path is reserved")
		}
	}
	if loc.Pass == "" {
		return fmt.Errorf("pass is required")
	}
	if _, ok := cfg.Upstreams[loc.Pass]; !ok {
		return fmt.Errorf("pass names undefined upstream %q", loc.Pass)
	}
	u := loc.Upstream
	if u.ConnectTimeout <= 0 || u.SendTimeout <= 0 || u.ReadTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if u.BufferSize < protocol.MinHeaderLen {
		return fmt.Errorf("buffer_size %d below %d", u.BufferSize, protocol.MinHeaderLen)
	}
	if loc.DefaultRatio <= 0 || loc.DefaultRatio > 100 {
		return fmt.Errorf("default_ratio %v outside (0, 100]", loc.DefaultRatio)
	}
	if strings.TrimSpace(loc.FilenameArg) == "" || strings.TrimSpace(loc.RatioArg) == "" {
		return fmt.Errorf("filename_arg and ratio_arg must be set")
	}
	if strings.TrimSpace(loc.DefaultType) == "" {
		return fmt.Errorf("default_type must be set")
	}
	return nil
}

// UpstreamNames returns the configured upstream group names in sorted order.
func UpstreamNames(cfg Config) []string {
	names := make([]string, 0, len(cfg.Upstreams))
	for name := range cfg.Upstreams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
