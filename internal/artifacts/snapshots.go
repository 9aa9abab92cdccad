package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"ragpipe/internal/config"
)

// Store is the narrow surface the pipeline needs to snapshot a stage's
// output as JSON, independent of which ObjectStore backend is configured.
type Store struct {
	backend ObjectStore
	enabled bool
}

// New builds a Store from cfg. When cfg.Enabled is false, SaveJSON is a
// no-op, so callers never have to branch on whether persistence is on.
func New(ctx context.Context, cfg config.ArtifactsConfig) (*Store, error) {
	if !cfg.Enabled {
		return &Store{enabled: false}, nil
	}

	var backend ObjectStore
	var err error
	switch cfg.Backend {
	case "s3":
		backend, err = NewS3Store(ctx, cfg.S3)
	case "memory":
		backend = NewMemoryStore()
	default: // "fs"
		dir := cfg.Dir
		if dir == "" {
			dir = "./output/artifacts"
		}
		backend, err = NewFSStore(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("artifacts: building %s backend: %w", cfg.Backend, err)
	}
	return &Store{backend: backend, enabled: true}, nil
}

// SaveJSON marshals v and stores it under key (e.g.
// "chunks/2026-07-31T00-00-00Z.json"). A no-op when the store is disabled.
func (s *Store) SaveJSON(ctx context.Context, key string, v interface{}) error {
	if !s.enabled {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifacts: marshaling %s: %w", key, err)
	}
	if _, err := s.backend.Put(ctx, key, bytes.NewReader(data), PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("artifacts: writing %s: %w", key, err)
	}
	return nil
}

func (s *Store) Enabled() bool { return s.enabled }
