package embed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// FileCache is an on-disk embedding cache, one JSON file per entry named
// "<key>.json", written via a temp-file-then-rename sequence so a crash
// mid-write never leaves a corrupt cache file in place.
type FileCache struct {
	dir string
	ttl time.Duration
}

type fileCacheEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Embedding []float32 `json:"embedding"`
}

// NewFileCache creates (if needed) dir and sweeps any already-expired
// entries before the first read.
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	c := &FileCache{dir: dir, ttl: ttl}
	c.sweepExpired()
	return c, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached embedding for key, or false if missing or stale.
func (c *FileCache) Get(_ context.Context, key string) ([]float32, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry fileCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("embed_filecache_decode_error")
		return nil, false
	}

	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}
	return entry.Embedding, true
}

// Set writes an embedding to disk via a temp file renamed into place.
func (c *FileCache) Set(_ context.Context, key string, embedding []float32) {
	entry := fileCacheEntry{Timestamp: time.Now().UTC(), Embedding: embedding}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("embed_filecache_encode_error")
		return
	}

	dest := c.path(key)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("embed_filecache_write_error")
		return
	}
	if err := os.Rename(tmp, dest); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("embed_filecache_rename_error")
		os.Remove(tmp)
	}
}

func (c *FileCache) sweepExpired() {
	if c.ttl <= 0 {
		return
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}

	now := time.Now().UTC()
	expired := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry fileCacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if now.Sub(entry.Timestamp) > c.ttl {
			os.Remove(path)
			expired++
		}
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Msg("embed_filecache_swept_expired_entries")
	}
}
