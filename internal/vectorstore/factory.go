package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"ragpipe/internal/config"
)

// New builds the VectorStore named by cfg.Backend. "memory" (or an empty
// backend) returns an in-process store that needs no external service.
func New(ctx context.Context, cfg config.VectorStoreConfig) (VectorStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "qdrant":
		return NewQdrantStore(cfg.Endpoint)
	case "pgvector", "postgres":
		return NewPgVectorStore(ctx, cfg.DSN, cfg.Collection)
	case "chroma", "chromadb":
		return NewChromaStore(cfg.Endpoint), nil
	case "milvus":
		return NewMilvusStore(cfg.Endpoint), nil
	case "weaviate":
		return NewWeaviateStore(cfg.Endpoint, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("vectorstore: unknown backend %q", cfg.Backend)
	}
}
