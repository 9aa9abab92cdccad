// Package config loads the two-level (infrastructure/functional) YAML
// configuration that drives a pipeline run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Error distinguishes a configuration-load or config-validation failure
// from a stage-fatal error, so cmd/ragpipe can map the two to different
// exit codes without string matching.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("config: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// ProviderConfig is one named infrastructure-level entry: an access method,
// an endpoint, and a credential that may itself be a "${VAR}" reference
// resolved at load time.
type ProviderConfig struct {
	Name         string            `yaml:"name"`
	AccessMethod string            `yaml:"access_method"`
	Endpoint     string            `yaml:"endpoint"`
	APIKey       string            `yaml:"api_key"`
	Headers      map[string]string `yaml:"headers"`
	UseOpenAISDK bool              `yaml:"use_openai_sdk"`
}

// RateLimitConfig is the functional-level rate_limiting block attached to
// any stage that makes LLM calls.
type RateLimitConfig struct {
	Enabled             bool    `yaml:"enabled"`
	MaxRetries          int     `yaml:"max_retries"`
	RetryDelayBaseSec   float64 `yaml:"retry_delay_base"`
	ExponentialBackoff  bool    `yaml:"exponential_backoff"`
	DelayBetweenReqsSec float64 `yaml:"delay_between_requests"`
}

// Duration helpers convert the YAML's fractional-seconds fields into
// time.Duration.
func (r RateLimitConfig) RetryDelayBase() time.Duration {
	return time.Duration(r.RetryDelayBaseSec * float64(time.Second))
}

func (r RateLimitConfig) DelayBetweenRequests() time.Duration {
	return time.Duration(r.DelayBetweenReqsSec * float64(time.Second))
}

// LLMTaskConfig is the functional-level config shared by every stage that
// calls a provider for a specific task: which provider/model, temperature,
// prompt templates, and rate limiting.
type LLMTaskConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Provider    string            `yaml:"provider"`
	Model       string            `yaml:"model"`
	Temperature float64           `yaml:"temperature"`
	Prompts     map[string]string `yaml:"prompts"`
	RateLimit   RateLimitConfig   `yaml:"rate_limiting"`
}

// ExtractionConfig configures the document extraction stage.
type ExtractionConfig struct {
	Profile       string   `yaml:"profile"`
	FallbackChain []string `yaml:"fallback_chain"`
	UseVLM        bool     `yaml:"use_vlm"`
	OCRLanguage   string   `yaml:"ocr_language"`
}

// ChunkingConfig configures the chunking stage across all four strategies.
type ChunkingConfig struct {
	Strategy string `yaml:"strategy"`

	FixedSize    int `yaml:"fixed_size"`
	FixedOverlap int `yaml:"fixed_overlap"`

	RecursiveSeparators []string `yaml:"recursive_separators"`
	RecursiveMaxSize    int      `yaml:"recursive_max_size"`
	RecursiveOverlap    int      `yaml:"recursive_overlap"`

	SemanticThreshold float64 `yaml:"semantic_similarity_threshold"`

	LLM LLMTaskConfig `yaml:"llm"`

	Validation struct {
		MinChunkSize int `yaml:"min_chunk_size"`
		MaxChunkSize int `yaml:"max_chunk_size"`
	} `yaml:"validation"`
}

// EnrichmentConfig configures the enrichment stage.
type EnrichmentConfig struct {
	LLM                         LLMTaskConfig `yaml:"llm"`
	IncludeRegulatoryFrameworks bool          `yaml:"include_regulatory_frameworks"`
	KeywordFallback             map[string][]string `yaml:"keyword_fallback"`
}

// AuditConfig configures the PII/compliance audit stage.
type AuditConfig struct {
	LogPath       string        `yaml:"log_path"`
	DetectPII     bool          `yaml:"detect_pii"`
	OutputDir     string        `yaml:"output_dir"`
	Formats       []string      `yaml:"formats"`
	Narrative     LLMTaskConfig `yaml:"narrative"`
	CriticalLimit int           `yaml:"critical_pii_count_threshold"`
}

// EmbeddingConfig configures the embedding stage, the source of truth for
// both the embedding stage itself and the semantic chunking strategy.
type EmbeddingConfig struct {
	Provider       string          `yaml:"provider"`
	Model          string          `yaml:"model"`
	Dimension      int             `yaml:"dimension"`
	BatchSize      int             `yaml:"batch_size"`
	MaxTextLength  int             `yaml:"max_text_length"`
	CacheDir       string          `yaml:"cache_dir"`
	CacheTTLHours  int             `yaml:"cache_ttl_hours"`
	UseRedisCache  bool            `yaml:"use_redis_cache"`
	RedisAddr      string          `yaml:"redis_addr"`
	RateLimit      RateLimitConfig `yaml:"rate_limiting"`
}

// TextNormalizationConfig configures the optional text-cleanup pass the
// normalization stage applies to chunks that pass validation.
type TextNormalizationConfig struct {
	UnicodeForm       string `yaml:"unicode_form"` // NFC | NFKC | NFD | NFKD | ""
	RemoveAccents     bool   `yaml:"remove_accents"`
	StandardizeQuotes bool   `yaml:"standardize_quotes"`
}

// NormalizeConfig configures the normalization stage.
type NormalizeConfig struct {
	L2Normalize        bool                    `yaml:"l2_normalize"`
	MetadataAllowed    []string                `yaml:"metadata_allowed_keys"`
	TextNormalization  TextNormalizationConfig `yaml:"text_normalization"`
	// KeepInvalidChunks: when false (default), a chunk that fails
	// embedding/metadata validation is dropped; when true, it is kept
	// with the validation error recorded in its metadata instead.
	KeepInvalidChunks bool `yaml:"keep_invalid_chunks"`
}

// VectorStoreConfig configures the storage stage backend.
type VectorStoreConfig struct {
	Backend         string `yaml:"backend"` // chroma | qdrant | pgvector | milvus | weaviate | memory
	Endpoint        string `yaml:"endpoint"`
	DSN             string `yaml:"dsn"`
	Collection      string `yaml:"collection"`
	APIKey          string `yaml:"api_key"`
	DistanceMetric  string `yaml:"distance_metric"` // cosine | l2 | ip
	BatchSize       int    `yaml:"batch_size"`
	DeleteBySource  bool   `yaml:"delete_by_source"`
}

// S3SSEConfig configures server-side encryption for the S3 artifact backend.
type S3SSEConfig struct {
	Mode     string `yaml:"mode"` // "", "sse-s3", "sse-kms"
	KMSKeyID string `yaml:"kms_key_id"`
}

// S3Config configures the optional S3-compatible artifact backend.
type S3Config struct {
	Bucket                string      `yaml:"bucket"`
	Region                string      `yaml:"region"`
	Endpoint              string      `yaml:"endpoint"`
	Prefix                string      `yaml:"prefix"`
	AccessKey             string      `yaml:"access_key"`
	SecretKey             string      `yaml:"secret_key"`
	UsePathStyle          bool        `yaml:"use_path_style"`
	TLSInsecureSkipVerify bool        `yaml:"tls_insecure_skip_verify"`
	SSE                   S3SSEConfig `yaml:"sse"`
}

// ArtifactsConfig configures on-disk/S3 persistence of pipeline stage
// snapshots (extracted/chunk/enriched/audit JSON).
type ArtifactsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Backend string   `yaml:"backend"` // "fs" | "s3" | "memory"
	Dir     string   `yaml:"dir"`
	S3      S3Config `yaml:"s3"`
}

// LifecycleConfig configures post-ingest file moves.
type LifecycleConfig struct {
	Enabled           bool     `yaml:"enabled"`
	MoveProcessed     bool     `yaml:"move_processed"`
	MoveErrors        bool     `yaml:"move_errors"`
	WatchDir          string   `yaml:"watch_dir"`
	WatchDirs         []string `yaml:"watch_dirs"`
	ProcessedDir      string   `yaml:"processed_dir"`
	ErrorsDir         string   `yaml:"errors_dir"`
	PreserveStructure bool     `yaml:"preserve_structure"`
	AddTimestamp      bool     `yaml:"add_timestamp"`
}

// PipelineConfig configures engine-wide behaviour not owned by one stage.
type PipelineConfig struct {
	MaxWorkers    int `yaml:"max_workers"`
	WatchInterval int `yaml:"watch_interval_seconds"`

	// EnabledStages gates each of the eight stages by name (extraction,
	// chunking, enrichment, audit, embedding, normalization, storage,
	// lifecycle). A stage absent from the map is enabled by default; a
	// stage mapped to false is not instantiated and never runs.
	EnabledStages map[string]bool `yaml:"enabled_stages"`
}

// StageEnabled reports whether the named stage should be constructed,
// defaulting to true when the map omits it.
func (p PipelineConfig) StageEnabled(name string) bool {
	v, ok := p.EnabledStages[name]
	if !ok {
		return true
	}
	return v
}

// Config is the fully-resolved, two-level configuration for one run:
// Infrastructure (named providers) plus Functional (per-stage) settings.
type Config struct {
	Infrastructure struct {
		Providers []ProviderConfig `yaml:"providers"`
	} `yaml:"infrastructure"`

	Extraction  ExtractionConfig  `yaml:"extraction"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment"`
	Audit       AuditConfig       `yaml:"audit"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Normalize   NormalizeConfig   `yaml:"normalize"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Lifecycle   LifecycleConfig   `yaml:"lifecycle"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Artifacts   ArtifactsConfig   `yaml:"artifacts"`

	LogLevel string `yaml:"log_level"`
	LogPath  string `yaml:"log_path"`
}

// Load reads every *.yaml/*.yml file directly under configDir, merges them
// into one document (later files win on key collision), substitutes
// "${VAR}" environment references, and decodes the result into Config.
// If envFile is non-empty it is loaded with godotenv.Overload first so the
// file can supply credentials referenced by the YAML.
func Load(configDir, envFile string) (*Config, error) {
	cfg, err := load(configDir, envFile)
	if err != nil {
		return nil, &Error{Op: "load", Err: err}
	}
	return cfg, nil
}

func load(configDir, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			return nil, fmt.Errorf("config: loading env file %s: %w", envFile, err)
		}
	}

	entries, err := os.ReadDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("config: reading config dir %s: %w", configDir, err)
	}

	merged := map[string]interface{}{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(configDir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		var doc map[string]interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		for k, v := range doc {
			merged[k] = v
		}
	}

	resolved, err := substituteEnvVars(merged)
	if err != nil {
		return nil, err
	}

	// Round-trip through yaml so the generic interface{} tree hydrates
	// cleanly into the typed Config struct.
	raw, err := yaml.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("config: re-marshaling resolved config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding resolved config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Infrastructure.Providers) == 0 {
		return fmt.Errorf("config: infrastructure.providers must declare at least one provider")
	}
	seen := make(map[string]bool, len(c.Infrastructure.Providers))
	for _, p := range c.Infrastructure.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider entry missing name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate provider name %q", p.Name)
		}
		seen[p.Name] = true
		switch p.AccessMethod {
		case "local", "openai_compatible", "huggingface_inference_api":
		default:
			return fmt.Errorf("config: provider %q has invalid access_method %q", p.Name, p.AccessMethod)
		}
	}
	switch c.Chunking.Strategy {
	case "fixed", "recursive", "semantic", "llm_guided", "":
	default:
		return fmt.Errorf("config: unknown chunking.strategy %q", c.Chunking.Strategy)
	}
	return nil
}
