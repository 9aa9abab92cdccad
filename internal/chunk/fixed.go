package chunk

import (
	"context"

	"ragpipe/internal/config"
)

// fixedStrategy is a sliding window of chunk_size with overlap, counted in
// exact characters.
type fixedStrategy struct {
	size    int
	overlap int
}

// NewFixed builds the fixed-window strategy. A size<=0 defaults to 1000;
// overlap is clamped to [0, size-1].
func NewFixed(cfg config.ChunkingConfig) *fixedStrategy {
	size := cfg.FixedSize
	if size <= 0 {
		size = 1000
	}
	overlap := cfg.FixedOverlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &fixedStrategy{size: size, overlap: overlap}
}

func (f *fixedStrategy) Name() string { return "fixed" }

// Split yields ceil((len(text)-overlap) / (size-overlap)) chunks, each
// exactly size characters except possibly the last, with consecutive
// chunks overlapping by exactly `overlap` characters.
func (f *fixedStrategy) Split(_ context.Context, text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	runes := []rune(text)
	n := len(runes)
	step := f.size - f.overlap
	if step <= 0 {
		step = f.size
	}

	var out []string
	for start := 0; start < n; start += step {
		end := start + f.size
		if end > n {
			end = n
		}
		out = append(out, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return out, nil
}
