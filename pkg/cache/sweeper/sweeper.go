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

// Package sweeper removes durable-tier entries by age, on a schedule and on
// demand under capacity pressure. Sweeps race concurrent writers by design:
// last writer wins, and an entry deleted out from under a fresh write is
// simply re-rendered on the next request.
package sweeper

import (
	"context"
	"sort"
	"time"

	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/observability/logging"
	"github.com/previewcache/previewd/pkg/observability/logging/logger"
	"github.com/previewcache/previewd/pkg/observability/metrics"
)

// forcedEvictionDenominator sets the fraction of the catalog a single forced
// sweep removes (1/5 = 20%), bounding per-pass cost while guaranteeing
// forward progress against a full cache.
const forcedEvictionDenominator = 5

// Sweeper evicts stale durable-tier entries
type Sweeper struct {
	name      string
	provider  string
	store     cache.Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// New returns a Sweeper over the provided store
func New(name, provider string, store cache.Store,
	retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		name:      name,
		provider:  provider,
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Start runs the scheduled expiry sweep until the context is canceled
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval < 1 {
		logger.Warn("cache sweeper was not started",
			logging.Pairs{"cacheName": s.name, "sweepInterval": s.interval})
		return
	}
	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.SweepExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// SweepExpired removes every durable entry whose age exceeds the retention
// window, returning the number removed. Idempotent; a pass with nothing
// expired is a no-op.
func (s *Sweeper) SweepExpired() int {
	entries, err := s.store.List()
	if err != nil {
		logger.Warn("expiry sweep list failed", logging.Pairs{
			"cacheName": s.name, "detail": err.Error()})
		return 0
	}
	now := s.now()
	var removals []string
	for _, e := range entries {
		if now.Sub(e.LastModified) > s.retention {
			removals = append(removals, e.Key)
		}
	}
	if len(removals) == 0 {
		return 0
	}
	if err := s.store.Delete(removals...); err != nil {
		logger.Warn("expiry sweep delete failed", logging.Pairs{
			"cacheName": s.name, "detail": err.Error()})
	}
	metrics.ObserveCacheEvent(s.name, s.provider, "eviction", "ttl")
	logger.Info("expired cache entries removed", logging.Pairs{
		"cacheName": s.name, "count": len(removals), "retention": s.retention})
	return len(removals)
}

// SweepForced removes the oldest fifth of the durable tier (rounded up),
// or the whole catalog if smaller. Invoked when the capacity governor
// rejects a write; returns the number removed.
func (s *Sweeper) SweepForced() int {
	entries, err := s.store.List()
	if err != nil {
		logger.Warn("forced sweep list failed", logging.Pairs{
			"cacheName": s.name, "detail": err.Error()})
		return 0
	}
	if len(entries) == 0 {
		return 0
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastModified.Before(entries[j].LastModified)
	})
	target := (len(entries) + forcedEvictionDenominator - 1) / forcedEvictionDenominator
	removals := make([]string, target)
	for i := 0; i < target; i++ {
		removals[i] = entries[i].Key
	}
	if err := s.store.Delete(removals...); err != nil {
		logger.Warn("forced sweep delete failed", logging.Pairs{
			"cacheName": s.name, "detail": err.Error()})
	}
	metrics.ObserveCacheEvent(s.name, s.provider, "eviction", "size_bytes")
	logger.Info("capacity pressure evicted oldest cache entries", logging.Pairs{
		"cacheName": s.name, "count": target, "catalogSize": len(entries)})
	return target
}
