package upstream

import (
	"fmt"
	"strings"
)

// NextUpstream selects which failures move an exchange on to the next server.
type NextUpstream uint8

const (
	NextError NextUpstream = 1 << iota
	NextTimeout
	NextInvalidResponse
	NextInternalError
	// NextNotFound is accepted for compatibility; the daemon has no
	// not-found status so it never triggers.
	NextNotFound
	NextOff
)

var nextUpstreamNames = []struct {
	name string
	flag NextUpstream
}{
	{"error", NextError},
	{"timeout", NextTimeout},
	{"invalid_response", NextInvalidResponse},
	{"internal_error", NextInternalError},
	{"not_found", NextNotFound},
	{"off", NextOff},
}

// ParseNextUpstream parses keywords such as ["error", "timeout"]. "off"
// overrides every other keyword.
func ParseNextUpstream(words []string) (NextUpstream, error) {
	var mask NextUpstream
	for _, raw := range words {
		word := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for _, entry := range nextUpstreamNames {
			if entry.name == word {
				mask |= entry.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("upstream: unknown next_upstream value %q", raw)
		}
	}
	if mask&NextOff != 0 {
		return NextOff, nil
	}
	return mask, nil
}

// Allows reports whether a failure of the given kind may be retried.
func (n NextUpstream) Allows(kind FailureKind) bool {
	if n&NextOff != 0 {
		return false
	}
	switch kind {
	case FailureError:
		return n&NextError != 0
	case FailureTimeout:
		return n&NextTimeout != 0
	case FailureInvalidResponse:
		return n&NextInvalidResponse != 0
	case FailureInternalError:
		return n&NextInternalError != 0
	default:
		return false
	}
}

// Words returns the keyword form, in canonical order.
func (n NextUpstream) Words() []string {
	words := make([]string, 0, len(nextUpstreamNames))
	for _, entry := range nextUpstreamNames {
		if n&entry.flag != 0 {
			words = append(words, entry.name)
		}
	}
	return words
}

func (n NextUpstream) String() string {
	return strings.Join(n.Words(), "|")
}
