// Package normalize implements the final pre-storage pass: embedding and
// metadata validation, L2 vector normalization, text normalization, and
// metadata key whitelisting.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ragpipe/internal/config"
)

// TextConfig controls the optional text-normalization passes applied
// after embedding and metadata validation.
type TextConfig struct {
	UnicodeForm       string // "NFC", "NFKC", "NFD", "NFKD", or "" to skip
	RemoveAccents     bool
	StandardizeQuotes bool
}

// Chunk is the minimal shape normalize operates on: a chunk's text, vector,
// and the metadata fields surfaced by the enrichment stage.
type Chunk struct {
	Text           string
	SourceFile     string
	ChunkIndex     int
	ContentHash    string
	Sensitivity    string
	DocumentType   string
	RegulatoryTags []string
	ProcessedAt    string
	Embedding      []float32
}

// Result is a normalized chunk plus its whitelisted metadata map, ready for
// vector store upsert.
type Result struct {
	Text      string
	Embedding []float32
	Metadata  map[string]interface{}
}

// Normalizer applies validation, L2 normalization, and metadata shaping.
type Normalizer struct {
	cfg  config.NormalizeConfig
	text TextConfig
}

func New(cfg config.NormalizeConfig, text TextConfig) *Normalizer {
	return &Normalizer{cfg: cfg, text: text}
}

// Normalize validates c, and when valid, returns the normalized Result.
// ok is false when the chunk fails validation; err carries the reason.
func (n *Normalizer) Normalize(c Chunk) (Result, bool, error) {
	if err := ValidateEmbedding(c.Embedding); err != nil {
		return Result{}, false, err
	}
	if err := ValidateMetadata(c); err != nil {
		return Result{}, false, err
	}

	text := c.Text
	if n.text.UnicodeForm != "" || n.text.RemoveAccents || n.text.StandardizeQuotes {
		text = NormalizeText(text, n.text)
	}

	embedding := c.Embedding
	if n.cfg.L2Normalize {
		embedding = L2Normalize(embedding)
	}

	return Result{
		Text:      text,
		Embedding: embedding,
		Metadata:  n.normalizeMetadata(c),
	}, true, nil
}

// L2Normalize scales v to unit length, returning v unchanged if its norm is
// zero.
func L2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// ValidateEmbedding rejects a nil, empty, NaN-containing, Inf-containing,
// or zero-norm embedding.
func ValidateEmbedding(v []float32) error {
	if v == nil {
		return fmt.Errorf("normalize: embedding missing")
	}
	if len(v) == 0 {
		return fmt.Errorf("normalize: embedding empty")
	}
	var sumSq float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) {
			return fmt.Errorf("normalize: embedding contains NaN")
		}
		if math.IsInf(f, 0) {
			return fmt.Errorf("normalize: embedding contains infinite values")
		}
		sumSq += f * f
	}
	if sumSq == 0 {
		return fmt.Errorf("normalize: embedding has zero norm")
	}
	return nil
}

// ValidateMetadata rejects a chunk missing its required text/source_file
// fields.
func ValidateMetadata(c Chunk) error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("normalize: required field missing: text")
	}
	if strings.TrimSpace(c.SourceFile) == "" {
		return fmt.Errorf("normalize: required field missing: source_file")
	}
	return nil
}

var quotePattern = regexp.MustCompile(`[\x{201C}\x{201D}\x{00AB}\x{00BB}]`)
var aposPattern = regexp.MustCompile(`[\x{2018}\x{2019}]`)

// NormalizeText applies the configured Unicode normalization form, optional
// accent stripping, and optional quote standardization, in that order.
func NormalizeText(text string, cfg TextConfig) string {
	switch strings.ToUpper(cfg.UnicodeForm) {
	case "NFC":
		text = norm.NFC.String(text)
	case "NFKC":
		text = norm.NFKC.String(text)
	case "NFD":
		text = norm.NFD.String(text)
	case "NFKD":
		text = norm.NFKD.String(text)
	}

	if cfg.RemoveAccents {
		text = stripAccents(text)
	}

	if cfg.StandardizeQuotes {
		text = quotePattern.ReplaceAllString(text, `"`)
		text = aposPattern.ReplaceAllString(text, "'")
	}

	return text
}

// stripAccents decomposes text to NFD, drops combining marks (Unicode
// category Mn), and recomposes to NFC.
func stripAccents(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func (n *Normalizer) normalizeMetadata(c Chunk) map[string]interface{} {
	full := map[string]interface{}{
		"source_file":     c.SourceFile,
		"chunk_index":     c.ChunkIndex,
		"content_hash":    c.ContentHash,
		"sensitivity":     c.Sensitivity,
		"document_type":   c.DocumentType,
		"regulatory_tags": c.RegulatoryTags,
		"processed_at":    c.ProcessedAt,
	}

	allowed := n.cfg.MetadataAllowed
	out := make(map[string]interface{}, len(full))
	for k, v := range full {
		if len(allowed) > 0 && !contains(allowed, k) {
			continue
		}
		if isEmptyValue(v) {
			continue
		}
		out[k] = v
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func isEmptyValue(v interface{}) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case int:
		return x == 0
	case []string:
		return len(x) == 0
	default:
		return v == nil
	}
}
