package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragpipe/internal/config"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestMoveToProcessedRelocatesFile(t *testing.T) {
	root := t.TempDir()
	watchDir := filepath.Join(root, "watch")
	processedDir := filepath.Join(root, "processed")

	src := writeTemp(t, watchDir, "doc.pdf", "hello")

	m, err := New(config.LifecycleConfig{
		Enabled:       true,
		MoveProcessed: true,
		WatchDir:      watchDir,
		ProcessedDir:  processedDir,
	})
	require.NoError(t, err)

	dest := m.MoveToProcessed(src, watchDir)
	require.NotEmpty(t, dest)
	assert.FileExists(t, dest)
	assert.NoFileExists(t, src)
}

func TestMoveToProcessedDisabledIsNoop(t *testing.T) {
	root := t.TempDir()
	src := writeTemp(t, root, "doc.pdf", "hello")

	m, err := New(config.LifecycleConfig{Enabled: false})
	require.NoError(t, err)

	dest := m.MoveToProcessed(src, "")
	assert.Empty(t, dest)
	assert.FileExists(t, src)
}

func TestMoveToErrorsWritesSidecar(t *testing.T) {
	root := t.TempDir()
	errorsDir := filepath.Join(root, "errors")
	src := writeTemp(t, root, "bad.pdf", "broken")

	m, err := New(config.LifecycleConfig{
		Enabled:    true,
		MoveErrors: true,
		ErrorsDir:  errorsDir,
	})
	require.NoError(t, err)

	dest := m.MoveToErrors(src, "", "extraction failed")
	require.NotEmpty(t, dest)
	assert.FileExists(t, dest)
	assert.FileExists(t, dest+".error")

	body, err := os.ReadFile(dest + ".error")
	require.NoError(t, err)
	assert.Contains(t, string(body), "extraction failed")
}

func TestDestinationPathPreservesStructure(t *testing.T) {
	root := t.TempDir()
	watchDir := filepath.Join(root, "watch")
	processedDir := filepath.Join(root, "processed")
	src := writeTemp(t, watchDir, "docs/nested/doc.pdf", "hello")

	m, err := New(config.LifecycleConfig{
		Enabled:           true,
		MoveProcessed:     true,
		WatchDir:          watchDir,
		ProcessedDir:      processedDir,
		PreserveStructure: true,
	})
	require.NoError(t, err)

	dest := m.MoveToProcessed(src, watchDir)
	assert.Contains(t, dest, filepath.Join("docs", "nested"))
}

func TestDestinationPathResolvesCollisionWithCounter(t *testing.T) {
	root := t.TempDir()
	processedDir := filepath.Join(root, "processed")
	writeTemp(t, processedDir, "doc.pdf", "existing")

	m, err := New(config.LifecycleConfig{
		Enabled:       true,
		MoveProcessed: true,
		ProcessedDir:  processedDir,
	})
	require.NoError(t, err)

	src := writeTemp(t, root, "doc.pdf", "new content")
	dest := m.MoveToProcessed(src, "")
	assert.NotEqual(t, filepath.Join(processedDir, "doc.pdf"), dest)
	assert.FileExists(t, dest)
}

func TestBaseWatchPathFindsContainingRoot(t *testing.T) {
	root := t.TempDir()
	watchDir := filepath.Join(root, "watch")
	require.NoError(t, os.MkdirAll(watchDir, 0o755))

	m, err := New(config.LifecycleConfig{WatchDir: watchDir})
	require.NoError(t, err)

	file := filepath.Join(watchDir, "sub", "doc.pdf")
	base := m.BaseWatchPath(file)
	absWatch, _ := filepath.Abs(watchDir)
	assert.Equal(t, absWatch, base)
}
