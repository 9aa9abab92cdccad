// Package pipeline implements the staged execution engine: an ordered list
// of stages that read and write a shared blackboard, with fail-fast
// validation at construction and per-stage failure semantics at run time.
package pipeline

import (
	"ragpipe/internal/audit"
	"ragpipe/internal/normalize"
)

// Document is a successful extraction promoted onto the blackboard. It is
// read-only once written by the extraction stage.
type Document struct {
	FilePath          string
	Text              string
	OriginalLength    int
	CleanedLength     int
	ExtractionMethod  string
	ConfidenceScore   float64
	Metadata          map[string]interface{}
	ExtractedJSONPath string
}

// Chunk is an ordered fragment of one document's text, before enrichment.
type Chunk struct {
	Text             string
	SourceFile       string
	ChunkIndex       int
	TotalChunks      int
	ChunkingStrategy string
}

// EnrichedChunk is a chunk plus the compliance metadata the enrichment
// stage attaches: content hash, timestamp, sensitivity, document type, and
// regulatory tags.
type EnrichedChunk struct {
	Text           string
	SourceFile     string
	ChunkIndex     int
	TotalChunks    int
	ContentHash    string
	ProcessedAt    string
	Sensitivity    string
	DocumentType   string
	RegulatoryTags []string
}

// EmbeddedChunk is an enriched chunk plus its embedding vector and
// provenance. All chunks produced within one run share EmbeddingDimensions.
type EmbeddedChunk struct {
	EnrichedChunk
	Embedding           []float32
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// StorageResult is the final per-run storage report, composed from the
// vector store's Report plus the run's collection/metric identifiers.
type StorageResult struct {
	Provider             string
	StoredCount          int
	FailedCount          int
	DeletedCount         int
	CollectionIdentifier string
	DistanceMetric       string
}

// Blackboard is the ordered, typed mapping passed between stages. Each
// field is one fixed slot (monitored_files, extracted_documents, chunks,
// enriched_chunks, audit_record, embedded_chunks, normalized_chunks,
// storage_result); a stage consumes one or more fields and writes exactly
// one. Modeling it as a struct rather than a dynamic map makes an
// unknown-key write a compile error instead of a silent typo.
type Blackboard struct {
	MonitoredFiles     []string
	ExtractedDocuments []Document
	Chunks             []Chunk
	EnrichedChunks     []EnrichedChunk
	AuditRecord        *audit.Record
	EmbeddedChunks     []EmbeddedChunk
	NormalizedChunks   []normalize.Result
	StorageResult      *StorageResult
}
