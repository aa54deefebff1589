/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryConfig tunes the in-memory cache.
type MemoryConfig struct {
	MaxEntries int           `json:"maxEntries" yaml:"maxEntries"`
	DefaultTTL time.Duration `json:"defaultTTL" yaml:"defaultTTL"`
}

// DefaultMemoryConfig returns the default in-memory cache settings.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		MaxEntries: 1024,
		DefaultTTL: 5 * time.Minute,
	}
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a process-local LRU cache with per-entry expiry. Expired
// entries are dropped lazily on read.
type MemoryCache struct {
	entries *lru.Cache[string, memoryEntry]
	ttl     time.Duration
}

// NewMemoryCache creates an in-memory cache; zero config fields fall back
// to DefaultMemoryConfig values.
func NewMemoryCache(config MemoryConfig) (*MemoryCache, error) {
	defaults := DefaultMemoryConfig()
	if config.MaxEntries <= 0 {
		config.MaxEntries = defaults.MaxEntries
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = defaults.DefaultTTL
	}
	entries, err := lru.New[string, memoryEntry](config.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &MemoryCache{entries: entries, ttl: config.DefaultTTL}, nil
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string, value interface{}) (bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(entry.data, value); err != nil {
		return false, err
	}
	return true, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.entries.Add(key, memoryEntry{data: data, expiresAt: time.Now().Add(ttl)})
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Flush implements Cache.
func (c *MemoryCache) Flush(_ context.Context) error {
	c.entries.Purge()
	return nil
}

// Close implements Cache.
func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}
