package chunk

import (
	"context"
	"math"
	"regexp"
	"strings"

	"ragpipe/internal/config"
)

// sentenceRe is a naive sentence boundary finder: text ending in ./!/?
// followed by whitespace, or running to end of string.
var sentenceRe = regexp.MustCompile(`(?s)([^.!?]+[.!?]+(\s+|$)|[^.!?]+$)`)

func sentencesOf(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// semanticStrategy walks sentences in order, opening a new chunk when the
// current chunk has reached max_chunk_size, or when the cosine similarity
// between consecutive sentence embeddings drops below the configured
// threshold and the current chunk has reached min_chunk_size.
type semanticStrategy struct {
	embedder  Embedder
	maxSize   int
	minSize   int
	threshold float64
}

func NewSemantic(cfg config.ChunkingConfig, embedder Embedder) *semanticStrategy {
	maxSize := cfg.Validation.MaxChunkSize
	if maxSize <= 0 {
		maxSize = 1500
	}
	minSize := cfg.Validation.MinChunkSize
	if minSize <= 0 {
		minSize = 200
	}
	threshold := cfg.SemanticThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	return &semanticStrategy{embedder: embedder, maxSize: maxSize, minSize: minSize, threshold: threshold}
}

func (s *semanticStrategy) Name() string { return "semantic" }

func (s *semanticStrategy) Split(ctx context.Context, text string) ([]string, error) {
	sentences := sentencesOf(text)
	if len(sentences) <= 1 {
		return NewRecursive(config.ChunkingConfig{}).Split(ctx, text)
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, sentences)
	if err != nil || len(embeddings) != len(sentences) {
		return NewRecursive(config.ChunkingConfig{}).Split(ctx, text)
	}

	var chunks []string
	var cur strings.Builder
	for i, sent := range sentences {
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(sent)

		if i == len(sentences)-1 {
			continue
		}

		size := cur.Len()
		boundary := false
		if size >= s.maxSize {
			boundary = true
		} else if size >= s.minSize {
			sim := cosineSimilarity(embeddings[i], embeddings[i+1])
			if sim < s.threshold {
				boundary = true
			}
		}
		if boundary {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks, nil
}

// cosineSimilarity is the dot-product-over-norms similarity of two
// embedding vectors. Mismatched or zero-norm inputs score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
