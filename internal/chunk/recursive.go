package chunk

import (
	"context"
	"strings"

	"ragpipe/internal/config"
)

// recursiveStrategy splits using an ordered separator cascade, recursing
// into any oversize part with the next separator, then merges adjacent
// small parts up to chunk_size and carries a character overlap between
// emitted chunks. The separator list is configurable, highest priority
// first; the terminal "" separator splits at character level.
type recursiveStrategy struct {
	separators []string
	maxSize    int
	overlap    int
}

func NewRecursive(cfg config.ChunkingConfig) *recursiveStrategy {
	seps := cfg.RecursiveSeparators
	if len(seps) == 0 {
		seps = []string{"\n\n\n", "\n\n", "\n", " ", ""}
	}
	size := cfg.RecursiveMaxSize
	if size <= 0 {
		size = 1000
	}
	return &recursiveStrategy{separators: seps, maxSize: size, overlap: cfg.RecursiveOverlap}
}

func (r *recursiveStrategy) Name() string { return "recursive" }

func (r *recursiveStrategy) Split(_ context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	parts := r.splitAt(text, 0)
	return r.mergeWithOverlap(parts), nil
}

// splitAt recursively applies separators[sepIdx:] to text, recursing into
// any part still exceeding maxSize with the next separator. The terminal
// separator "" means a character-level split.
func (r *recursiveStrategy) splitAt(text string, sepIdx int) []string {
	if len(text) <= r.maxSize {
		return []string{text}
	}
	if sepIdx >= len(r.separators) {
		return splitChars(text, r.maxSize)
	}

	sep := r.separators[sepIdx]
	var pieces []string
	if sep == "" {
		pieces = splitChars(text, r.maxSize)
	} else {
		pieces = strings.Split(text, sep)
	}

	var out []string
	for i, p := range pieces {
		if sep != "" && i < len(pieces)-1 {
			p += sep
		}
		if p == "" {
			continue
		}
		if len(p) > r.maxSize {
			out = append(out, r.splitAt(p, sepIdx+1)...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

func splitChars(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// mergeWithOverlap merges adjacent small parts until the next merge would
// exceed maxSize, then emits, carrying `overlap` characters from the tail
// of each emitted chunk into the start of the next.
func (r *recursiveStrategy) mergeWithOverlap(parts []string) []string {
	if len(parts) == 0 {
		return nil
	}
	var out []string
	var buf strings.Builder
	carry := ""

	flush := func() {
		s := buf.String()
		if s == "" {
			return
		}
		out = append(out, s)
		carry = tailRunes(s, r.overlap)
		buf.Reset()
		buf.WriteString(carry)
	}

	for _, p := range parts {
		if buf.Len() > 0 && buf.Len()-len(carry)+len(p) > r.maxSize {
			flush()
		}
		buf.WriteString(p)
	}
	if rest := buf.String(); rest != "" && rest != carry {
		out = append(out, rest)
	} else if rest == carry && carry != "" && len(out) == 0 {
		out = append(out, rest)
	}
	return out
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
