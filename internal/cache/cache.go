// Package cache provides the two persistent key-value stores that make
// external calls idempotent across runs: geocoding outcomes by place name and
// fallback-classifier labels by record id. Each store is a JSON snapshot on
// disk, loaded at run start and saved at run end. A missing or corrupt file
// is treated as an empty cache so a damaged snapshot never blocks a run.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lentoturva/report-etl/internal/domain"
)

// LocationCache persists geocoding outcomes by canonical place name. A nil
// value records a previously attempted, unresolved name ("not found") so the
// same name is never re-queried.
type LocationCache struct {
	path string

	mu      sync.Mutex
	entries map[string]*domain.Coordinates
}

// NewLocationCache creates an empty cache backed by the given file path.
func NewLocationCache(path string) *LocationCache {
	return &LocationCache{path: path, entries: make(map[string]*domain.Coordinates)}
}

// Load reads the snapshot from disk. A missing file is not an error. A
// corrupt file leaves the cache empty and returns the parse error so the
// caller can log it; the run proceeds either way.
func (c *LocationCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*domain.Coordinates)
	if err := loadJSON(c.path, &c.entries); err != nil {
		c.entries = make(map[string]*domain.Coordinates)
		return err
	}
	return nil
}

// Save writes the snapshot, replacing any previous file.
func (c *LocationCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return saveJSON(c.path, c.entries)
}

// Get returns the cached outcome for a name. ok distinguishes "never
// attempted" (false) from a cached result, which may itself be nil for a
// cached "not found".
func (c *LocationCache) Get(name string) (*domain.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coords, ok := c.entries[name]
	return coords, ok
}

// Put records a geocoding outcome. Pass nil coordinates to cache "not found".
func (c *LocationCache) Put(name string, coords *domain.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = coords
}

// Len reports the number of cached names.
func (c *LocationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ClassificationCache persists fallback-classifier labels by record id.
type ClassificationCache struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// NewClassificationCache creates an empty cache backed by the given file path.
func NewClassificationCache(path string) *ClassificationCache {
	return &ClassificationCache{path: path, entries: make(map[string]string)}
}

// Load reads the snapshot from disk; same tolerance semantics as
// [LocationCache.Load].
func (c *ClassificationCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string)
	if err := loadJSON(c.path, &c.entries); err != nil {
		c.entries = make(map[string]string)
		return err
	}
	return nil
}

// Save writes the snapshot, replacing any previous file.
func (c *ClassificationCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return saveJSON(c.path, c.entries)
}

// Get returns the cached label for a record id.
func (c *ClassificationCache) Get(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	label, ok := c.entries[id]
	return label, ok
}

// Put records a label for a record id.
func (c *ClassificationCache) Put(id, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = label
}

// Len reports the number of cached labels.
func (c *ClassificationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse cache %s: %w", path, err)
	}
	return nil
}

// saveJSON writes via a temp file and rename so an interrupted run never
// leaves a truncated snapshot behind.
func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache %s: %w", path, err)
	}
	return nil
}
