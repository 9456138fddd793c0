package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	m "qcgen.dev/pkg/qcgen/internal/model"
)

const cacheVersion = 1

// CacheStore persists the incremental-generation manifest.
type CacheStore interface {
	Load(path m.Path) (m.Cache, error)
	Save(path m.Path, cache m.Cache) error
}

// YAMLCacheStore keeps the manifest as a YAML document.
type YAMLCacheStore struct{}

// NewYAMLCacheStore constructs a YAMLCacheStore.
func NewYAMLCacheStore() *YAMLCacheStore {
	return &YAMLCacheStore{}
}

// Load reads the manifest at path. A missing file, or one written by another
// manifest version, yields an empty cache.
func (s *YAMLCacheStore) Load(path m.Path) (m.Cache, error) {
	empty := m.Cache{Version: cacheVersion, Entries: map[m.Path]m.CacheEntry{}}

	data, err := os.ReadFile(string(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}

		return empty, fmt.Errorf("failed to read cache %s: %w", path, err)
	}

	var cache m.Cache
	if err := yaml.Unmarshal(data, &cache); err != nil {
		return empty, fmt.Errorf("failed to decode cache %s: %w", path, err)
	}

	if cache.Version != cacheVersion {
		return empty, nil
	}

	if cache.Entries == nil {
		cache.Entries = map[m.Path]m.CacheEntry{}
	}

	return cache, nil
}

// Save writes cache to path, creating parent directories as needed.
func (s *YAMLCacheStore) Save(path m.Path, cache m.Cache) error {
	cache.Version = cacheVersion

	data, err := yaml.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if dir := filepath.Dir(string(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache %s: %w", path, err)
	}

	return nil
}
