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

// Package engine coordinates a preview request: derive the cache key, probe
// the two-tier cache, and on a miss admit, render and write back. Concurrent
// misses for the same key share a single render via singleflight.
package engine

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/previewcache/previewd/pkg/admission"
	"github.com/previewcache/previewd/pkg/cache/key"
	"github.com/previewcache/previewd/pkg/cache/status"
	"github.com/previewcache/previewd/pkg/cache/tiered"
	"github.com/previewcache/previewd/pkg/observability/logging"
	"github.com/previewcache/previewd/pkg/observability/logging/logger"
	"github.com/previewcache/previewd/pkg/observability/metrics"
	"github.com/previewcache/previewd/pkg/render"
)

var (
	// ErrAdmissionDenied indicates the render concurrency ceiling was
	// reached; callers respond with an overload signal and do not retry
	ErrAdmissionDenied = errors.New("too many concurrent render operations")
	// ErrRenderFailed is the generic failure surfaced to callers when the
	// render collaborator errors; internal detail is logged, never returned
	ErrRenderFailed = errors.New("unable to render target")
)

// Result is the outcome of a coordinated preview request
type Result struct {
	// Body is the rendered image bytes
	Body []byte
	// Status indicates whether the cache served the body (hit) or a fresh
	// render produced it (kmiss)
	Status status.LookupStatus
}

// Engine is the per-request coordinator
type Engine struct {
	cache     *tiered.Cache
	admission *admission.Controller
	renderer  render.Renderer
	sf        singleflight.Group
}

// New returns an Engine over the provided cache, admission controller and renderer
func New(c *tiered.Cache, a *admission.Controller, r render.Renderer) *Engine {
	return &Engine{
		cache:     c,
		admission: a,
		renderer:  r,
	}
}

// NormalizeURL lowercases the scheme and host and drops any fragment, so
// equivalent spellings of a target derive the same cache key
func NormalizeURL(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	return c.String()
}

// Fetch serves the preview for the target URL at the requested dimensions,
// from cache when possible, rendering on a miss. Every admitted render
// releases its permit on all exit paths.
func (e *Engine) Fetch(ctx context.Context, u *url.URL,
	width, height int) (*Result, error) {
	target := NormalizeURL(u)
	k := key.Derive(target, width, height)

	if b, s := e.cache.Retrieve(k); s == status.LookupStatusHit {
		return &Result{Body: b, Status: s}, nil
	}

	v, err, _ := e.sf.Do(k, func() (any, error) {
		if !e.admission.TryAcquire() {
			return nil, ErrAdmissionDenied
		}
		defer e.admission.Release()

		start := time.Now()
		b, err := e.renderer.Render(ctx, target, width, height)
		if err != nil {
			metrics.RenderDuration.WithLabelValues("error").
				Observe(time.Since(start).Seconds())
			logger.Error("render failed", logging.Pairs{
				"url": target, "width": width, "height": height,
				"detail": err.Error()})
			return nil, ErrRenderFailed
		}
		metrics.RenderDuration.WithLabelValues("ok").
			Observe(time.Since(start).Seconds())

		// best-effort write-back; a rejected or failed write still serves
		// the rendered bytes to the caller
		if serr := e.cache.Store(k, b); serr != nil &&
			!errors.Is(serr, tiered.ErrCapacityExceeded) {
			logger.Warn("cache write-back failed", logging.Pairs{
				"key": k, "detail": serr.Error()})
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Body: v.([]byte), Status: status.LookupStatusKeyMiss}, nil
}
