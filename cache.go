package xsdcheck

import (
	"log/slog"
	"path/filepath"
	"sync"
)

// LoadFunc builds the composed schema for a schema directory.
type LoadFunc func(dir string) (*Schema, error)

// SchemaCache keeps one composed schema per schema directory. Concurrent Get
// calls for the same directory share a single load.
type SchemaCache struct {
	mu      sync.RWMutex
	schemas map[string]*schemaEntry
	load    LoadFunc
	logger  *slog.Logger
}

// schemaEntry holds a schema and its loader
type schemaEntry struct {
	once   sync.Once
	schema *Schema
	err    error
}

// NewSchemaCache creates a new schema cache
func NewSchemaCache(load LoadFunc, logger *slog.Logger) *SchemaCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaCache{
		schemas: make(map[string]*schemaEntry),
		load:    load,
		logger:  logger,
	}
}

// Get retrieves a schema from cache or loads it if not present. Failed loads
// are cached too; call Remove to retry.
func (sc *SchemaCache) Get(dir string) (*Schema, error) {
	key := sc.resolvePath(dir)

	sc.mu.RLock()
	entry, exists := sc.schemas[key]
	sc.mu.RUnlock()

	if !exists {
		sc.mu.Lock()
		if entry, exists = sc.schemas[key]; !exists {
			entry = &schemaEntry{}
			sc.schemas[key] = entry
		}
		sc.mu.Unlock()
	}

	entry.once.Do(func() {
		sc.logger.Debug("loading schema directory", "dir", key)
		entry.schema, entry.err = sc.load(dir)
	})
	return entry.schema, entry.err
}

// Remove removes a specific schema from cache
func (sc *SchemaCache) Remove(dir string) {
	key := sc.resolvePath(dir)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.schemas, key)
}

// Clear removes all cached schemas
func (sc *SchemaCache) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.schemas = make(map[string]*schemaEntry)
}

// Len returns the number of cached directories.
func (sc *SchemaCache) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.schemas)
}

// resolvePath resolves a schema directory to an absolute path
func (sc *SchemaCache) resolvePath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}
