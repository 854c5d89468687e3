// Package cache is the flat, content-addressed artifact cache used by the
// TTS stage. Keys are stable hashes of the synthesis inputs; artifacts are
// trusted on lookup beyond a minimum-size check against truncated files.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// minArtifactBytes rejects truncated files on lookup.
const minArtifactBytes = 100

// Cache is a flat directory of hashed artifacts, independent of sessions.
type Cache struct {
	dir string
}

// New creates the cache directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives the stable cache key for one synthesis request.
func Key(text, lang, desc, engine string) string {
	h := sha256.Sum256([]byte(text + "|" + lang + "|" + desc + "|" + engine))
	return hex.EncodeToString(h[:])
}

// Path returns where the artifact for key would live.
func (c *Cache) Path(engine, key, ext string) string {
	if engine == "" {
		engine = "tts"
	}
	return filepath.Join(c.dir, engine+"_"+key+ext)
}

// Lookup returns the cached artifact path for key, or "" on miss. Artifacts
// smaller than the sanity threshold are treated as misses.
func (c *Cache) Lookup(engine, key, ext string) string {
	path := c.Path(engine, key, ext)
	info, err := os.Stat(path)
	if err != nil || info.Size() < minArtifactBytes {
		return ""
	}
	return path
}

// Store copies src into the cache under key, preserving src's extension
// when ext is empty, and returns the cached path.
func (c *Cache) Store(src, engine, key, ext string) (string, error) {
	if ext == "" {
		ext = filepath.Ext(src)
		if ext == "" {
			ext = ".wav"
		}
	}
	dst := c.Path(engine, key, ext)

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open source artifact: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create cache entry: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}
	return dst, nil
}
