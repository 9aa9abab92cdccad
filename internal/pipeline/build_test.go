package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/config"
)

func minimalConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		VectorStore: config.VectorStoreConfig{
			Backend:    "memory",
			Collection: "docs",
		},
		Audit: config.AuditConfig{
			LogPath: filepath.Join(dir, "audit.jsonl"),
		},
		Chunking: config.ChunkingConfig{
			Strategy: "fixed",
		},
	}
}

func TestBuildConstructsEveryStageByDefault(t *testing.T) {
	cfg := minimalConfig(t)
	built, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, built.Engine)
	assert.NoError(t, built.Engine.Validate())
}

func TestBuildOmitsDisabledStages(t *testing.T) {
	cfg := minimalConfig(t)
	cfg.Pipeline.EnabledStages = map[string]bool{
		StageAudit:     false,
		StageLifecycle: false,
	}

	built, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, built.Engine.Validate())

	for _, s := range built.Engine.stages {
		assert.NotEqual(t, "audit", s.Name())
		assert.NotEqual(t, "lifecycle", s.Name())
	}
}

func TestBuildKeepsExtractionHandleForCaller(t *testing.T) {
	cfg := minimalConfig(t)
	built, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, built.Extraction)
	assert.NotNil(t, built.Lifecycle)
}

func TestStageEnabledDefaultsTrueWhenUnset(t *testing.T) {
	p := config.PipelineConfig{}
	assert.True(t, p.StageEnabled(StageChunking))
}

func TestStageEnabledHonorsExplicitFalse(t *testing.T) {
	p := config.PipelineConfig{EnabledStages: map[string]bool{StageEmbedding: false}}
	assert.False(t, p.StageEnabled(StageEmbedding))
	assert.True(t, p.StageEnabled(StageStorage))
}
