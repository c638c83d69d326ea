package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileCache keeps extractions in memory and persists them as one JSON object on Flush
type FileCache struct {
	path    string
	entries map[string]json.RawMessage
	dirty   bool
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewFileCache loads the cache file at path. A missing file starts an empty cache.
func NewFileCache(path string, logger *zap.Logger) (*FileCache, error) {
	c := &FileCache{
		path:    path,
		entries: make(map[string]json.RawMessage),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &c.entries); err != nil {
			logger.Warn("Ignoring unreadable cache file", zap.String("path", path), zap.Error(err))
			c.entries = make(map[string]json.RawMessage)
		}
	}

	logger.Debug("Loaded extraction cache", zap.String("path", path), zap.Int("entries", len(c.entries)))
	return c, nil
}

// Get retrieves a cached extraction
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Put stores a cached extraction. Values that are not valid JSON are rejected.
func (c *FileCache) Put(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("cache value for %s is not valid JSON", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = append(json.RawMessage(nil), value...)
	c.dirty = true
	return nil
}

// Delete removes a cache entry
func (c *FileCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.dirty = true
	}
	return nil
}

// Flush writes the cache to disk through a temporary file and rename
func (c *FileCache) Flush(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	c.dirty = false
	c.logger.Debug("Flushed extraction cache", zap.String("path", c.path), zap.Int("entries", len(c.entries)))
	return nil
}

// Len returns the number of cached entries
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop flushes pending entries
func (c *FileCache) Stop() {
	if err := c.Flush(context.Background()); err != nil {
		c.logger.Error("Failed to flush extraction cache", zap.Error(err))
	}
}
