package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"ragpipe/internal/audit"
	"ragpipe/internal/config"
	"ragpipe/internal/providers"
)

// AuditStage emits one append-only audit record per run: document/chunk
// counts, an optional PII scan over every chunk, and an optional
// LLM-synthesized narrative summary persisted alongside the JSONL trail.
type AuditStage struct {
	cfg     config.AuditConfig
	auditor *audit.Auditor
}

func NewAuditStage(cfg config.AuditConfig, registry *providers.Registry) (*AuditStage, error) {
	var llmCaller audit.LLMCaller
	if cfg.Narrative.Enabled && registry != nil {
		client, err := registry.Client(cfg.Narrative.Provider, cfg.Narrative.Model, cfg.Narrative.Temperature)
		if err != nil {
			return nil, fmt.Errorf("audit stage: resolving llm provider: %w", err)
		}
		client.Retry = providers.RetryConfigFromRateLimit(cfg.Narrative.RateLimit)
		llmCaller = client
	}
	if body, ok := cfg.Narrative.Prompts["audit_summary"]; ok {
		placeholders := []string{"timestamp", "operation", "documents_processed", "chunks_created", "files_list"}
		if _, err := providers.NewTemplate("audit_summary", body, placeholders); err != nil {
			return nil, fmt.Errorf("audit stage: %w", err)
		}
	}
	return &AuditStage{cfg: cfg, auditor: audit.New(cfg, llmCaller)}, nil
}

func (s *AuditStage) Name() string { return "audit" }

func (s *AuditStage) ValidateConfig() error {
	if s.cfg.LogPath == "" {
		return fmt.Errorf("audit: log_path must be set")
	}
	return nil
}

func (s *AuditStage) Execute(ctx context.Context, bb *Blackboard) error {
	filesProcessed := make([]string, 0, len(bb.ExtractedDocuments))
	for _, d := range bb.ExtractedDocuments {
		filesProcessed = append(filesProcessed, d.FilePath)
	}
	chunkTexts := make([]string, len(bb.EnrichedChunks))
	for i, c := range bb.EnrichedChunks {
		chunkTexts[i] = c.Text
	}

	rec := audit.BuildRecord(len(bb.ExtractedDocuments), len(bb.EnrichedChunks), filesProcessed, chunkTexts, s.cfg.DetectPII)

	if rec.PIIDetection != nil && rec.PIIDetection.CriticalCount() > 0 {
		log.Error().
			Int("ssn_and_card_hits", rec.PIIDetection.CriticalCount()).
			Msg("audit: critical PII category detected (SSN/credit card)")
	}

	rec = s.auditor.Summarize(ctx, rec)

	if err := audit.WriteLog(s.cfg.LogPath, rec); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if s.cfg.Narrative.Enabled && s.cfg.OutputDir != "" && len(s.cfg.Formats) > 0 {
		if err := audit.SaveSummary(rec, s.cfg.OutputDir, s.cfg.Formats); err != nil {
			log.Warn().Err(err).Msg("audit: failed to persist narrative summary")
		}
	}

	bb.AuditRecord = &rec
	return nil
}
