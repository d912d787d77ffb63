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

// Package capacity tracks the durable tier's aggregate size against its
// configured byte ceiling
package capacity

import (
	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/observability/logging"
	"github.com/previewcache/previewd/pkg/observability/logging/logger"
	"github.com/previewcache/previewd/pkg/observability/metrics"
)

// Governor answers whether an additional write would push the durable tier
// over its byte ceiling. It is side-effect free; callers act on the answer.
type Governor struct {
	name     string
	provider string
	store    cache.Store
	ceiling  int64
}

// New returns a Governor over the provided store with the given ceiling in bytes
func New(name, provider string, store cache.Store, ceilingBytes int64) *Governor {
	metrics.CacheMaxBytes.WithLabelValues(name, provider).Set(float64(ceilingBytes))
	return &Governor{
		name:     name,
		provider: provider,
		store:    store,
		ceiling:  ceilingBytes,
	}
}

// CeilingBytes returns the configured byte ceiling
func (g *Governor) CeilingBytes() int64 {
	return g.ceiling
}

// CurrentSize sums the sizes of all durable-tier blobs
func (g *Governor) CurrentSize() (int64, error) {
	entries, err := g.store.List()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	metrics.ObserveCacheSizeChange(g.name, g.provider, total, int64(len(entries)))
	return total, nil
}

// WouldExceed reports whether committing additionalBytes more would exceed
// the ceiling. A failure to size the durable tier is absorbed as "would not
// exceed": a cache must not turn a storage hiccup into a rejected write.
func (g *Governor) WouldExceed(additionalBytes int64) bool {
	total, err := g.store.List()
	if err != nil {
		logger.Warn("cache size scan failed", logging.Pairs{
			"cacheName": g.name, "detail": err.Error()})
		return false
	}
	var current int64
	for _, e := range total {
		current += e.Size
	}
	metrics.ObserveCacheSizeChange(g.name, g.provider, current, int64(len(total)))
	return current+additionalBytes > g.ceiling
}
