package artifacts

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStorePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Put(ctx, "chunks/run1.json", bytes.NewReader([]byte(`{"a":1}`)), PutOptions{ContentType: "application/json"})
	require.NoError(t, err)

	r, attrs, err := store.Get(ctx, "chunks/run1.json")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, "chunks/run1.json", attrs.Key)

	assert.FileExists(t, filepath.Join(dir, "chunks", "run1.json"))
}

func TestFSStoreGetMissingReturnsNotFound(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStoreExistsReflectsPutAndDelete(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "chunks/a.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Put(ctx, "chunks/a.json", bytes.NewReader([]byte("{}")), PutOptions{})
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "chunks/a.json")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "chunks/a.json"))
	exists, err = store.Exists(ctx, "chunks/a.json")
	require.NoError(t, err)
	assert.False(t, exists)
}
