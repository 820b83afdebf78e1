package daemon

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/danmuck/summarizer/internal/protocol"
	"github.com/rs/zerolog/log"
)

// FileSummarizer answers requests from files under Root. The summary is the
// leading ratio percent of the file's sentences, never fewer than one.
type FileSummarizer struct {
	Root string
}

func (f FileSummarizer) Summarize(ctx context.Context, req protocol.Request) Result {
	if !validRatio(req.Ratio) {
		return InvalidRequest()
	}
	name := string(req.FileName)
	if name == "" || !filepath.IsLocal(name) {
		return InvalidRequest()
	}
	if err := ctx.Err(); err != nil {
		return InternalError()
	}

	path := filepath.Join(f.Root, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return InvalidRequest()
		}
		log.Error().Str("path", path).Err(err).Msg("stat source failed")
		return InternalError()
	}
	if !info.Mode().IsRegular() {
		return InvalidRequest()
	}

	text, err := os.ReadFile(path)
	if err != nil {
		log.Error().Str("path", path).Err(err).Msg("read source failed")
		return InternalError()
	}
	return Summary(LeadingSentences(text, req.Ratio))
}

func validRatio(r float32) bool {
	return !math.IsNaN(float64(r)) && r > 0 && r <= 100
}

// LeadingSentences returns the prefix of text holding the first
// ceil(len(sentences)*ratio/100) sentences, trimmed of surrounding space.
func LeadingSentences(text []byte, ratio float32) []byte {
	ends := sentenceEnds(text)
	if len(ends) == 0 {
		return []byte{}
	}
	keep := int(math.Ceil(float64(len(ends)) * float64(ratio) / 100))
	if keep < 1 {
		keep = 1
	}
	if keep > len(ends) {
		keep = len(ends)
	}
	return bytes.TrimSpace(text[:ends[keep-1]])
}

// sentenceEnds returns the offset just past each sentence. A sentence ends at
// '.', '!' or '?' followed by whitespace or end of text; trailing text with no
// terminator counts as a final sentence.
func sentenceEnds(text []byte) []int {
	var ends []int
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || isSpace(text[i+1]) {
				if len(bytes.TrimSpace(text[start:i+1])) > 0 {
					ends = append(ends, i+1)
				}
				start = i + 1
			}
		}
	}
	if len(bytes.TrimSpace(text[start:])) > 0 {
		ends = append(ends, len(text))
	}
	return ends
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
