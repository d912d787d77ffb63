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

// Package tiered layers the in-process tier over a durable blob store with
// read-through, back-fill, and capacity-governed write-through semantics.
// Caching is best-effort: durable-tier I/O failures degrade to a miss or a
// skipped write and never reach the request path.
package tiered

import (
	"errors"

	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/cache/capacity"
	"github.com/previewcache/previewd/pkg/cache/memory"
	"github.com/previewcache/previewd/pkg/cache/status"
	"github.com/previewcache/previewd/pkg/cache/sweeper"
	"github.com/previewcache/previewd/pkg/observability/logging"
	"github.com/previewcache/previewd/pkg/observability/logging/logger"
	"github.com/previewcache/previewd/pkg/observability/metrics"
)

// ErrCapacityExceeded is the control-flow signal that a write was rejected
// by the capacity governor. The freshly rendered bytes are still valid for
// the caller; only the caching of them was skipped.
var ErrCapacityExceeded = errors.New("cache capacity exceeded")

// Cache is the two-tier previewd cache
type Cache struct {
	name     string
	provider string
	mem      *memory.Cache
	store    cache.Store
	governor *capacity.Governor
	sweeper  *sweeper.Sweeper
}

// New returns a two-tier Cache over the provided tiers and lifecycle helpers
func New(name, provider string, mem *memory.Cache, store cache.Store,
	governor *capacity.Governor, sw *sweeper.Sweeper) *Cache {
	return &Cache{
		name:     name,
		provider: provider,
		mem:      mem,
		store:    store,
		governor: governor,
		sweeper:  sw,
	}
}

// Retrieve checks the in-process tier first, then reads through to the
// durable tier, back-filling the in-process tier on a durable hit. Durable
// I/O errors are absorbed as a miss.
func (c *Cache) Retrieve(key string) ([]byte, status.LookupStatus) {
	if b, ok := c.mem.Retrieve(key); ok {
		metrics.ObserveCacheOperation(c.name, c.provider, "get", "hit", float64(len(b)))
		return b, status.LookupStatusHit
	}
	if !c.store.Exists(key) {
		metrics.ObserveCacheOperation(c.name, c.provider, "get", "miss", 0)
		return nil, status.LookupStatusKeyMiss
	}
	b, err := c.store.Read(key)
	if err != nil {
		if !errors.Is(err, cache.ErrKNF) {
			logger.Warn("durable tier read failed", logging.Pairs{
				"cacheName": c.name, "key": key, "detail": err.Error()})
			metrics.ObserveCacheEvent(c.name, c.provider, "error", "read failed")
		}
		return nil, status.LookupStatusKeyMiss
	}
	c.mem.Store(key, b)
	metrics.ObserveCacheOperation(c.name, c.provider, "get", "hit", float64(len(b)))
	return b, status.LookupStatusHit
}

// Store writes the entry through both tiers. If the capacity governor
// reports the write would exceed the byte ceiling, the entry is not written,
// a forced sweep is triggered, and ErrCapacityExceeded is returned. A
// durable-tier write failure is returned for observability but the
// in-process mirror is skipped so the memory tier never leads the durable
// tier.
func (c *Cache) Store(key string, data []byte) error {
	if c.governor.WouldExceed(int64(len(data))) {
		metrics.ObserveCacheEvent(c.name, c.provider, "rejection", "capacity")
		logger.Debug("cache write rejected at capacity", logging.Pairs{
			"cacheName": c.name, "key": key, "bytes": len(data)})
		c.sweeper.SweepForced()
		return ErrCapacityExceeded
	}
	if err := c.store.Write(key, data); err != nil {
		logger.Warn("durable tier write failed", logging.Pairs{
			"cacheName": c.name, "key": key, "detail": err.Error()})
		metrics.ObserveCacheEvent(c.name, c.provider, "error", "write failed")
		return err
	}
	c.mem.Store(key, data)
	metrics.ObserveCacheOperation(c.name, c.provider, "set", "none", float64(len(data)))
	return nil
}
