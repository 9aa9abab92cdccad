// Package enrich adds compliance metadata to each chunk: a content hash,
// a processing timestamp, a sensitivity classification, a document-type
// heuristic, and regulatory framework tags.
package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"ragpipe/internal/config"
)

// LLMCaller is the subset of internal/providers.Client used for sensitivity
// classification.
type LLMCaller interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var validSensitivityLevels = map[string]bool{
	"public": true, "interne": true, "confidentiel": true, "secret": true,
}

var sensitiveKeywords = []string{"confidentiel", "secret", "privé", "interne"}

var documentTypeKeywords = []struct {
	keyword string
	docType string
}{
	{"contract", "contract"},
	{"contrat", "contract"},
	{"audit", "audit report"},
	{"policy", "policy"},
	{"politique", "policy"},
	{"procedure", "procedure"},
	{"procédure", "procedure"},
}

var regulatoryKeywords = []struct {
	needles []string
	tag     string
}{
	{[]string{"rgpd", "gdpr"}, "RGPD"},
	{[]string{"iso 27001", "iso27001"}, "ISO27001"},
	{[]string{"soc2", "soc 2"}, "SOC2"},
}

// Enricher applies the enrichment rules to chunks.
type Enricher struct {
	cfg      config.EnrichmentConfig
	provider LLMCaller // nil when LLM classification is disabled
}

func New(cfg config.EnrichmentConfig, provider LLMCaller) *Enricher {
	return &Enricher{cfg: cfg, provider: provider}
}

// EnrichedChunk is a chunk plus its compliance metadata.
type EnrichedChunk struct {
	Text                        string
	SourceFile                  string
	ChunkIndex                  int
	ContentHash                 string
	ProcessedAt                 string
	Sensitivity                 string
	DocumentType                string
	RegulatoryTags              []string
	IncludeRegulatoryFrameworks bool
}

// Enrich computes every enrichment field for one chunk.
func (e *Enricher) Enrich(ctx context.Context, text, sourceFile string, chunkIndex int) EnrichedChunk {
	ec := EnrichedChunk{
		Text:                        text,
		SourceFile:                  sourceFile,
		ChunkIndex:                  chunkIndex,
		ContentHash:                 ContentHash(text),
		ProcessedAt:                 time.Now().UTC().Format(time.RFC3339),
		DocumentType:                ClassifyDocumentType(sourceFile),
		IncludeRegulatoryFrameworks: e.cfg.IncludeRegulatoryFrameworks,
	}
	ec.Sensitivity = e.classifySensitivity(ctx, text)
	if ec.IncludeRegulatoryFrameworks {
		ec.RegulatoryTags = ExtractRegulatoryTags(text)
	}
	return ec
}

// ContentHash is SHA-256(text) as a lowercase hex string.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (e *Enricher) defaultLevel() string {
	if e.cfg.KeywordFallback != nil {
		if levels, ok := e.cfg.KeywordFallback["default_level"]; ok && len(levels) > 0 {
			return levels[0]
		}
	}
	return "interne"
}

// classifySensitivity uses an LLM call when a provider is configured and
// llm.enabled is set; a failed or invalid reply yields the default level.
// Without an enabled LLM it falls back to a keyword scan.
func (e *Enricher) classifySensitivity(ctx context.Context, text string) string {
	if e.provider != nil && e.cfg.LLM.Enabled {
		if level, ok := e.classifyWithLLM(ctx, text); ok {
			return level
		}
		return e.defaultLevel()
	}

	lower := strings.ToLower(text)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return "confidentiel"
		}
	}
	return e.defaultLevel()
}

func (e *Enricher) classifyWithLLM(ctx context.Context, text string) (string, bool) {
	tmpl := e.cfg.LLM.Prompts["sensitivity_classification"]
	if tmpl == "" {
		tmpl = defaultSensitivityPrompt
	}
	limited := text
	if len(limited) > 1000 {
		limited = limited[:1000]
	}
	prompt := strings.ReplaceAll(tmpl, "{text}", limited)

	reply, err := e.provider.Chat(ctx, "", prompt)
	if err != nil || reply == "" {
		return "", false
	}

	lines := strings.SplitN(strings.TrimSpace(reply), "\n", 2)
	firstLine := strings.ToLower(strings.TrimSpace(lines[0]))
	fields := strings.Fields(firstLine)
	if len(fields) == 0 {
		return "", false
	}
	if validSensitivityLevels[fields[0]] {
		return fields[0], true
	}
	return "", false
}

const defaultSensitivityPrompt = `Classify the sensitivity level of the following document.
Respond with EXACTLY one of these words: public, interne, confidentiel, secret

Document:
{text}

Sensitivity level:`

// ClassifyDocumentType heuristically types a document by filename keyword.
func ClassifyDocumentType(sourceFile string) string {
	lower := strings.ToLower(sourceFile)
	for _, kw := range documentTypeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.docType
		}
	}
	return "other"
}

// ExtractRegulatoryTags scans text for known regulatory framework mentions.
func ExtractRegulatoryTags(text string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, rk := range regulatoryKeywords {
		for _, n := range rk.needles {
			if strings.Contains(lower, n) {
				tags = append(tags, rk.tag)
				break
			}
		}
	}
	return tags
}
