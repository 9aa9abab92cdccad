package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ragpipe/internal/config"
)

func TestContentHashKnownValue(t *testing.T) {
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", ContentHash("hello"))
}

func TestClassifySensitivityKeywordFallback(t *testing.T) {
	e := New(config.EnrichmentConfig{}, nil)
	got := e.classifySensitivity(context.Background(), "Ce document est strictement confidentiel.")
	assert.Equal(t, "confidentiel", got)
}

func TestClassifySensitivityDefaultLevel(t *testing.T) {
	e := New(config.EnrichmentConfig{}, nil)
	got := e.classifySensitivity(context.Background(), "Plain text with nothing sensitive.")
	assert.Equal(t, "interne", got)
}

func TestClassifySensitivityCustomDefaultLevel(t *testing.T) {
	e := New(config.EnrichmentConfig{KeywordFallback: map[string][]string{"default_level": {"public"}}}, nil)
	got := e.classifySensitivity(context.Background(), "Nothing special here.")
	assert.Equal(t, "public", got)
}

func TestClassifyDocumentType(t *testing.T) {
	assert.Equal(t, "contract", ClassifyDocumentType("2026/contrat_fournisseur.pdf"))
	assert.Equal(t, "audit report", ClassifyDocumentType("Q1_audit_report.docx"))
	assert.Equal(t, "policy", ClassifyDocumentType("politique_secu.pdf"))
	assert.Equal(t, "procedure", ClassifyDocumentType("procedure_onboarding.docx"))
	assert.Equal(t, "other", ClassifyDocumentType("notes.txt"))
}

func TestExtractRegulatoryTags(t *testing.T) {
	tags := ExtractRegulatoryTags("This policy complies with RGPD and ISO 27001 and SOC2 requirements.")
	assert.ElementsMatch(t, []string{"RGPD", "ISO27001", "SOC2"}, tags)
}

func TestExtractRegulatoryTagsNone(t *testing.T) {
	assert.Empty(t, ExtractRegulatoryTags("No mention of any framework here."))
}

type stubChat struct {
	reply string
	err   error
}

func (s stubChat) Chat(_ context.Context, _ string, _ string) (string, error) {
	return s.reply, s.err
}

func TestClassifySensitivityWithLLM(t *testing.T) {
	e := New(config.EnrichmentConfig{LLM: config.LLMTaskConfig{Enabled: true}}, stubChat{reply: "secret\n"})
	got := e.classifySensitivity(context.Background(), "Some text.")
	assert.Equal(t, "secret", got)
}

func TestClassifySensitivityLLMInvalidUsesDefaultLevel(t *testing.T) {
	e := New(config.EnrichmentConfig{LLM: config.LLMTaskConfig{Enabled: true}}, stubChat{reply: "unknown-level"})
	got := e.classifySensitivity(context.Background(), "This is interne only.")
	assert.Equal(t, "interne", got)
}

func TestEnrichProducesAllFields(t *testing.T) {
	e := New(config.EnrichmentConfig{IncludeRegulatoryFrameworks: true}, nil)
	ec := e.Enrich(context.Background(), "Contains RGPD reference.", "contrat_x.pdf", 0)
	assert.Equal(t, ContentHash("Contains RGPD reference."), ec.ContentHash)
	assert.NotEmpty(t, ec.ProcessedAt)
	assert.Equal(t, "contract", ec.DocumentType)
	assert.Contains(t, ec.RegulatoryTags, "RGPD")
}
