/*
 * Copyright 2024 The Previewd Authors
 *
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

// Package memory is the in-process tier of the previewd cache. It is a
// read-accelerating subset of the durable tier: bounded in entry count,
// per-entry TTL, expired entries removed lazily on access. It may transiently
// serve an entry the sweeper just evicted from the durable tier; that
// staleness window is bounded by the TTL.
package memory

import (
	"sync"
	"time"
)

const (
	// DefaultTTL is the default time-to-live for in-process tier entries
	DefaultTTL = time.Hour
	// DefaultMaxEntries is the default in-process tier entry-count bound
	DefaultMaxEntries = 1024
)

type entry struct {
	data       []byte
	expiration time.Time
}

// Cache is a bounded, time-expiring in-process byte cache
type Cache struct {
	mtx        sync.Mutex
	entries    map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// New returns a new in-process Cache with the provided entry-count bound and TTL
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	if ttl < 1 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Retrieve looks up the key, removing and reporting absent any expired entry
func (c *Cache) Retrieve(key string) ([]byte, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiration) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data, true
}

// Store places the value in the cache with the configured TTL, evicting the
// earliest-expiring entry if the cache is at its entry-count bound
func (c *Cache) Store(key string, data []byte) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	now := c.now()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.purgeExpired(now)
		if len(c.entries) >= c.maxEntries {
			c.evictEarliest()
		}
	}
	c.entries[key] = &entry{data: data, expiration: now.Add(c.ttl)}
}

// Remove deletes the provided keys from the cache
func (c *Cache) Remove(keys ...string) {
	c.mtx.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mtx.Unlock()
}

// Len returns the current entry count
func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.entries)
}

// purgeExpired removes all expired entries; callers must hold the lock
func (c *Cache) purgeExpired(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expiration) {
			delete(c.entries, k)
		}
	}
}

// evictEarliest removes the entry nearest to expiry; callers must hold the lock
func (c *Cache) evictEarliest() {
	var victim string
	var earliest time.Time
	for k, e := range c.entries {
		if victim == "" || e.expiration.Before(earliest) {
			victim = k
			earliest = e.expiration
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}
