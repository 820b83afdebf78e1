package gateway

import (
	"errors"
	"math"
	"net/url"
	"strings"

	"github.com/danmuck/summarizer/internal/config"
	"github.com/danmuck/summarizer/internal/protocol"
)

var ErrMissingFileName = errors.New("gateway: file name argument missing")

// ParseRatio reads a ratio the way C atoi does: optional leading space and
// sign, then decimal digits up to the first non-digit. No digits yields 0.
// Values outside the int32 range saturate.
func ParseRatio(raw string) float32 {
	s := strings.TrimLeft(raw, " \t\n\v\f\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int64(s[i]-'0')
		if n > math.MaxInt32+1 {
			n = math.MaxInt32 + 1
		}
	}
	if neg {
		n = -n
	} else if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return float32(n)
}

// RequestFromQuery builds the daemon request for one location. A missing
// file name argument is an error; an absent or empty ratio falls back to the
// location's default.
func RequestFromQuery(q url.Values, loc config.Location) (protocol.Request, error) {
	names, ok := q[loc.FilenameArg]
	if !ok || len(names) == 0 {
		return protocol.Request{}, ErrMissingFileName
	}
	req := protocol.Request{
		FileName: []byte(names[0]),
		Ratio:    loc.DefaultRatio,
	}
	if raw := q.Get(loc.RatioArg); raw != "" {
		req.Ratio = ParseRatio(raw)
	}
	return req, nil
}
