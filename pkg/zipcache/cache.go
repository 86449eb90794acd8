// Package zipcache keeps resolved ZIP codes in memory and on disk so repeated
// queries do not go back to the network.
package zipcache

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/codeGROOVE-dev/zipTZ/pkg/lookup"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

const fileName = "zip-cache.gob"

// Entry is one cached lookup.
type Entry struct {
	ExpiresAt time.Time
	Location  lookup.Location
}

// Cache is an otter cache of lookups, optionally persisted as a gob file.
type Cache struct {
	cache      *otter.Cache[zipcode.Code, Entry]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	now        func() time.Time
	dir        string
	saveWg     sync.WaitGroup
	ttl        time.Duration
	mu         sync.Mutex
}

// New creates a cache. An empty dir keeps entries in memory only.
func New(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	c := &Cache{
		cache: otter.Must(&otter.Options[zipcode.Code, Entry]{
			MaximumSize:      50_000,
			InitialCapacity:  256,
			ExpiryCalculator: otter.ExpiryWriting[zipcode.Code, Entry](ttl),
		}),
		dir:    dir,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}

	if dir == "" {
		logger.Debug("zip cache initialized in memory")
		return c, nil
	}

	if err := c.loadFromDisk(); err != nil {
		logger.Warn("failed to load zip cache from disk", "error", err)
	}
	logger.Debug("zip cache initialized", "dir", dir, "entries_loaded", c.cache.EstimatedSize())

	c.startPeriodicSave(ctx)
	return c, nil
}

// Get returns a cached location.
func (c *Cache) Get(code zipcode.Code) (*lookup.Location, bool) {
	entry, found := c.cache.GetIfPresent(code)
	if !found {
		c.logger.Debug("zip cache miss", "zip", code)
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.logger.Debug("zip cache miss", "zip", code, "reason", "expired", "expired_at", entry.ExpiresAt)
		c.cache.Invalidate(code)
		return nil, false
	}
	loc := entry.Location
	return &loc, true
}

// Set stores a location under its ZIP code.
func (c *Cache) Set(loc *lookup.Location) {
	entry := Entry{
		Location:  *loc,
		ExpiresAt: c.now().Add(c.ttl),
	}
	c.cache.Set(loc.ZIP, entry)
	c.logger.Debug("zip cache set", "zip", loc.ZIP, "expires_at", entry.ExpiresAt)
}

// Len returns the approximate number of entries.
func (c *Cache) Len() int {
	return c.cache.EstimatedSize()
}

// Wrap returns a resolver that answers from the cache and stores successful
// lookups of inner. Not-found answers and faults are never cached.
func (c *Cache) Wrap(inner lookup.Resolver) lookup.Resolver {
	return lookup.ResolverFunc(func(ctx context.Context, code zipcode.Code) (*lookup.Location, error) {
		if loc, ok := c.Get(code); ok {
			return loc, nil
		}
		loc, err := inner.Lookup(ctx, code)
		if err != nil {
			return nil, err
		}
		if loc.ZIP == "" {
			loc.ZIP = code
		}
		c.Set(loc)
		return loc, nil
	})
}

func (c *Cache) loadFromDisk() error {
	cachePath := filepath.Join(c.dir, fileName)

	file, err := os.Open(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			c.logger.Debug("failed to close cache file", "error", closeErr)
		}
	}()

	var entries map[zipcode.Code]Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	now := c.now()
	valid := 0
	for code, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.cache.Set(code, entry)
			valid++
		}
	}
	c.logger.Debug("loaded zip cache from disk", "path", cachePath,
		"total_entries", len(entries), "valid_entries", valid)
	return nil
}

// Save writes unexpired entries to disk. It is a no-op for memory-only caches.
func (c *Cache) Save() error {
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cachePath := filepath.Join(c.dir, fileName)
	tempPath := cachePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			c.logger.Debug("failed to remove temp file", "error", removeErr)
		}
	}()

	entries := make(map[zipcode.Code]Entry)
	now := c.now()
	for code, entry := range c.cache.All() {
		if now.Before(entry.ExpiresAt) {
			entries[code] = entry
		}
	}

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		_ = file.Close() //nolint:errcheck // already failing
		return fmt.Errorf("encoding cache to file: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tempPath, cachePath); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}

	c.logger.Debug("zip cache saved to disk", "entries", len(entries), "path", cachePath)
	return nil
}

func (c *Cache) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel

	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()

		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.Save(); err != nil {
					c.logger.Error("periodic zip cache save failed", "error", err)
				}
			}
		}
	}()
}

// Close stops the periodic save and writes the cache one last time.
func (c *Cache) Close() error {
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()

	if err := c.Save(); err != nil {
		c.logger.Error("final zip cache save failed", "error", err)
		return err
	}
	return nil
}
