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

// Package admission bounds the number of concurrently in-flight render
// operations. Denial is immediate and final for a request; there is no
// queue.
package admission

import (
	"sync/atomic"

	"github.com/previewcache/previewd/pkg/observability/metrics"
)

// DefaultMaxConcurrent is the default in-flight render ceiling
const DefaultMaxConcurrent = 10

// Controller is a process-wide in-flight render counter
type Controller struct {
	limit    int64
	inFlight atomic.Int64
}

// New returns a Controller with the provided concurrency ceiling
func New(limit int) *Controller {
	if limit < 1 {
		limit = DefaultMaxConcurrent
	}
	return &Controller{limit: int64(limit)}
}

// TryAcquire increments the in-flight counter iff it is strictly below the
// ceiling, with no read-modify-write race window. Returns false when the
// counter is at the ceiling.
func (c *Controller) TryAcquire() bool {
	for {
		cur := c.inFlight.Load()
		if cur >= c.limit {
			metrics.AdmissionRejections.Inc()
			return false
		}
		if c.inFlight.CompareAndSwap(cur, cur+1) {
			metrics.RendersInFlight.Set(float64(cur + 1))
			return true
		}
	}
}

// Release decrements the in-flight counter; callers must pair it with every
// successful TryAcquire on all exit paths
func (c *Controller) Release() {
	n := c.inFlight.Add(-1)
	if n < 0 {
		// unpaired Release; restore the floor
		c.inFlight.Add(1)
		n = 0
	}
	metrics.RendersInFlight.Set(float64(n))
}

// InFlight returns the current in-flight count
func (c *Controller) InFlight() int64 {
	return c.inFlight.Load()
}

// Limit returns the configured concurrency ceiling
func (c *Controller) Limit() int64 {
	return c.limit
}
