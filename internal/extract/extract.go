// Package extract implements the document extraction stage: an ordered
// fallback chain of extractors tried in sequence until one produces a
// validated result.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"ragpipe/internal/config"
)

// Result is the outcome of one extractor's attempt at one file.
type Result struct {
	Text             string
	Success          bool
	ExtractorName    string
	Metadata         map[string]interface{}
	Error            string
	ConfidenceScore  float64
	ExtractionTime   time.Duration
}

// Extractor is one strategy for turning a file into text. Implementations
// never return an error for an unreadable or unsupported file; they report
// failure through Result.Success/Error so the fallback chain can continue.
type Extractor interface {
	Name() string
	CanExtract(path string) bool
	Extract(path string) Result
	// ValidateResult applies extractor-specific acceptance rules (minimum
	// text length, non-empty table rows, etc.) beyond plain Success.
	ValidateResult(r Result) bool
}

// registry maps a configured extractor name to its constructor. Each
// constructor takes the extractor-specific config sub-map.
var registry = map[string]func(cfg map[string]interface{}) Extractor{
	"text":   func(cfg map[string]interface{}) Extractor { return newTextExtractor(cfg) },
	"tabular": func(cfg map[string]interface{}) Extractor { return newTabularExtractor(cfg) },
	"html":   func(cfg map[string]interface{}) Extractor { return newHTMLExtractor(cfg) },
	"office": func(cfg map[string]interface{}) Extractor { return newOfficeExtractor(cfg) },
	"pdf":    func(cfg map[string]interface{}) Extractor { return newPDFExtractor(cfg) },
	"ocr":    func(cfg map[string]interface{}) Extractor { return newOCRExtractor(cfg) },
	"vlm":    func(cfg map[string]interface{}) Extractor { return newVLMExtractor(cfg) },
}

// vlmExtractors names extractors that require a multimodal provider call
// and are filtered out unless use_vlm is enabled.
var vlmExtractors = map[string]bool{"vlm": true}

// entry is one named+configured position in a fallback chain.
type entry struct {
	name string
	cfg  map[string]interface{}
}

// profiles are predefined fallback-chain orderings for common tradeoffs.
// Each matches the ordering rationale: cheap/structural extractors first,
// binary/OCR-heavy extractors last.
var profiles = map[string][]entry{
	"speed": {
		{"text", map[string]interface{}{"min_text_length": 10}},
		{"tabular", map[string]interface{}{}},
		{"html", map[string]interface{}{}},
		{"pdf", map[string]interface{}{"min_text_length": 50}},
	},
	"memory": {
		{"text", map[string]interface{}{"min_text_length": 10}},
		{"tabular", map[string]interface{}{}},
		{"html", map[string]interface{}{}},
		{"office", map[string]interface{}{}},
		{"pdf", map[string]interface{}{}},
	},
	"compromise": {
		{"text", map[string]interface{}{"min_text_length": 10}},
		{"tabular", map[string]interface{}{}},
		{"html", map[string]interface{}{}},
		{"office", map[string]interface{}{}},
		{"pdf", map[string]interface{}{}},
		{"ocr", map[string]interface{}{}},
	},
	"quality": {
		{"text", map[string]interface{}{"min_text_length": 10}},
		{"tabular", map[string]interface{}{}},
		{"html", map[string]interface{}{}},
		{"office", map[string]interface{}{}},
		{"pdf", map[string]interface{}{}},
		{"ocr", map[string]interface{}{}},
		{"vlm", map[string]interface{}{}},
	},
}

// Manager tries a configured chain of extractors, in order, until one
// validates. All initialization happens up front; Extract never mutates
// chain composition.
type Manager struct {
	chain []Extractor
}

// NewManager builds a fallback chain from extraction config: a named
// profile, or (when the profile is "custom"/unrecognized) an explicit list
// under config if present.
func NewManager(cfg config.ExtractionConfig) (*Manager, error) {
	var chain []entry
	if p, ok := profiles[cfg.Profile]; ok {
		chain = p
	} else {
		for _, name := range cfg.FallbackChain {
			chain = append(chain, entry{name: name})
		}
	}
	if len(chain) == 0 {
		chain = profiles["compromise"]
	}

	m := &Manager{}
	for _, e := range chain {
		if !cfg.UseVLM && vlmExtractors[e.name] {
			continue
		}
		ctor, ok := registry[e.name]
		if !ok {
			continue
		}
		m.chain = append(m.chain, ctor(e.cfg))
	}
	if len(m.chain) == 0 {
		return nil, fmt.Errorf("extract: no extractors configured")
	}
	return m, nil
}

// ExtractWithFallback tries each configured extractor in order for path,
// returning the first validated Result and the name of the extractor that
// produced it. If every applicable extractor fails, it returns an error
// summarizing each failure.
func (m *Manager) ExtractWithFallback(path string) (Result, string, error) {
	var failures []string
	for _, ex := range m.chain {
		if !ex.CanExtract(path) {
			continue
		}
		start := time.Now()
		r := ex.Extract(path)
		r.ExtractionTime = time.Since(start)
		if r.Metadata == nil {
			r.Metadata = map[string]interface{}{}
		}
		r.Metadata["extraction_time_seconds"] = r.ExtractionTime.Seconds()

		if ex.ValidateResult(r) {
			r.ExtractorName = ex.Name()
			return r, ex.Name(), nil
		}
		reason := r.Error
		if reason == "" {
			reason = "validation failed"
		}
		failures = append(failures, fmt.Sprintf("%s: %s", ex.Name(), reason))
	}
	return Result{}, "", fmt.Errorf("extract: all extractors failed for %s:\n  %s",
		filepath.Base(path), strings.Join(failures, "\n  "))
}

// AvailableExtractors returns the configured chain's extractor names, in
// the order they are tried.
func (m *Manager) AvailableExtractors() []string {
	out := make([]string, len(m.chain))
	for i, e := range m.chain {
		out[i] = e.Name()
	}
	return out
}
