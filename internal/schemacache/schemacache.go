// Package schemacache memoizes schema introspection per connection.
//
// Entries are keyed by database.ConnParams.Key and expire after a TTL.
// Callers invalidate a key after running user SQL, since DDL may have
// changed the schema.
package schemacache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/koustreak/sqldesk/internal/database"
)

// Config sizes the cache.
type Config struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

func DefaultConfig() Config {
	return Config{Size: 64, TTL: 5 * time.Minute}
}

// Cache is safe for concurrent use. Concurrent misses for one key may both
// introspect; the last writer wins.
type Cache struct {
	lru *expirable.LRU[string, *database.Schema]
}

func New(cfg Config) *Cache {
	if cfg.Size <= 0 {
		cfg.Size = DefaultConfig().Size
	}
	return &Cache{lru: expirable.NewLRU[string, *database.Schema](cfg.Size, nil, cfg.TTL)}
}

// Get returns the cached schema for key or introspects db and stores it.
func (c *Cache) Get(ctx context.Context, key string, db database.DB) (*database.Schema, error) {
	if s, ok := c.lru.Get(key); ok {
		return s, nil
	}

	s, err := db.InspectSchema(ctx)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, s)
	return s, nil
}

// Invalidate drops key.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// Purge drops everything.
func (c *Cache) Purge() {
	c.lru.Purge()
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
