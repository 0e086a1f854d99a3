package modeldata

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Catalog is the runtime view of the model table: the built-in entries
// merged with whatever the on-disk override file carries. Safe for
// concurrent readers; Reload swaps the table wholesale under lock.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]ModelConfig
	def    ModelConfig
	path   string
	logger *zap.Logger
}

// NewCatalog builds a catalog seeded from the built-in table. path may
// be empty, in which case LoadFile and Reload are no-ops.
func NewCatalog(path string, logger *zap.Logger) *Catalog {
	models := make(map[string]ModelConfig, len(Known))
	for id, m := range Known {
		models[id] = m
	}
	return &Catalog{
		models: models,
		def:    Default,
		path:   path,
		logger: logger,
	}
}

// Lookup resolves a model identifier to its config. Resolution order:
// exact id; longest known id that prefixes the query (so
// "gpt-4o-2024-08-06" finds "gpt-4o"); shortest known id the query
// prefixes (so an un-dated "claude-3-opus" finds the dated snapshot);
// then the default entry. Never fails.
func (c *Catalog) Lookup(model string) ModelConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.models[model]; ok {
		return m
	}

	if model == "" {
		return c.def
	}

	best := ""
	for id := range c.models {
		if strings.HasPrefix(model, id) && len(id) > len(best) {
			best = id
		}
	}
	if best != "" {
		return c.models[best]
	}

	for id := range c.models {
		if strings.HasPrefix(id, model) && (best == "" || id < best) {
			best = id
		}
	}
	if best != "" {
		return c.models[best]
	}

	return c.def
}

// Has reports whether the exact model id is present.
func (c *Catalog) Has(model string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.models[model]
	return ok
}

// List returns all entries ordered by id.
func (c *Catalog) List() []ModelConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ModelConfig, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type catalogFile struct {
	Models []ModelConfig `yaml:"models"`
}

// LoadFile merges the override file into the table. Entries override
// built-ins by id; built-ins absent from the file are kept. A missing
// file is not an error so a fresh deployment works without one.
func (c *Catalog) LoadFile() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read model catalog: %w", err)
	}

	var wrapper catalogFile
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("parse model catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range wrapper.Models {
		if m.ID == "" {
			continue
		}
		c.models[m.ID] = m
	}

	if c.logger != nil {
		c.logger.Info("Model catalog loaded",
			zap.String("path", c.path),
			zap.Int("overrides", len(wrapper.Models)),
			zap.Int("total", len(c.models)))
	}
	return nil
}

// SaveFile writes the full current table to the override file, giving
// operators a complete file to start tuning prices from.
func (c *Catalog) SaveFile() error {
	if c.path == "" {
		return nil
	}

	wrapper := catalogFile{Models: c.List()}
	data, err := yaml.Marshal(wrapper)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// Reload rebuilds the table from built-ins and re-applies the file.
// Used by the maintenance scheduler so price edits land without a
// restart.
func (c *Catalog) Reload() error {
	c.mu.Lock()
	fresh := make(map[string]ModelConfig, len(Known))
	for id, m := range Known {
		fresh[id] = m
	}
	c.models = fresh
	c.mu.Unlock()

	return c.LoadFile()
}
