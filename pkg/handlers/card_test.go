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

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/previewcache/previewd/pkg/admission"
	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/cache/capacity"
	"github.com/previewcache/previewd/pkg/cache/memory"
	"github.com/previewcache/previewd/pkg/cache/sweeper"
	"github.com/previewcache/previewd/pkg/cache/tiered"
	"github.com/previewcache/previewd/pkg/config"
	"github.com/previewcache/previewd/pkg/engine"
	"github.com/previewcache/previewd/pkg/policy"
	"github.com/previewcache/previewd/pkg/render"
)

type mapStore struct {
	mtx     sync.Mutex
	entries map[string][]byte
	mtimes  map[string]time.Time
}

func newMapStore() *mapStore {
	return &mapStore{
		entries: make(map[string][]byte),
		mtimes:  make(map[string]time.Time),
	}
}

func (s *mapStore) Connect() error { return nil }
func (s *mapStore) Close() error   { return nil }

func (s *mapStore) Exists(key string) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	_, ok := s.entries[key]
	return ok
}

func (s *mapStore) Read(key string) ([]byte, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	b, ok := s.entries[key]
	if !ok {
		return nil, cache.ErrKNF
	}
	return b, nil
}

func (s *mapStore) Write(key string, data []byte) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.entries[key] = data
	s.mtimes[key] = time.Now()
	return nil
}

func (s *mapStore) Delete(keys ...string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
		delete(s.mtimes, k)
	}
	return nil
}

func (s *mapStore) List() ([]cache.EntryInfo, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]cache.EntryInfo, 0, len(s.entries))
	for k, v := range s.entries {
		out = append(out, cache.EntryInfo{Key: k, Size: int64(len(v)),
			LastModified: s.mtimes[k]})
	}
	return out, nil
}

func newCardHandler(r render.Renderer, pol *policy.Options,
	maxConcurrent int) http.HandlerFunc {
	conf := config.NewConfig()
	store := newMapStore()
	mem := memory.New(16, time.Hour)
	gov := capacity.New("test", "fake", store, 1<<20)
	sw := sweeper.New("test", "fake", store, 7*24*time.Hour, 24*time.Hour)
	c := tiered.New("test", "fake", mem, store, gov, sw)
	e := engine.New(c, admission.New(maxConcurrent), r)
	return CardHandleFunc(conf, e, policy.NewChecker(pol))
}

func okRenderer() render.Renderer {
	return render.RendererFunc(func(context.Context, string, int, int) ([]byte, error) {
		return []byte("png"), nil
	})
}

func TestCardHandlerMissThenHit(t *testing.T) {
	h := newCardHandler(okRenderer(), nil, 4)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet,
		"http://0/?url=https://example.com/page", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get(NameContentType); ct != ValueImagePNG {
		t.Errorf("expected %s, got %s", ValueImagePNG, ct)
	}
	if cc := w.Header().Get(NameCacheControl); cc != ValuePublicFresh {
		t.Errorf("expected %q, got %q", ValuePublicFresh, cc)
	}
	if res := w.Header().Get(NamePreviewdResult); res != "status=kmiss" {
		t.Errorf("expected status=kmiss, got %q", res)
	}
	if w.Body.String() != "png" {
		t.Errorf("unexpected body %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet,
		"http://0/?url=https://example.com/page", nil))
	if res := w.Header().Get(NamePreviewdResult); res != "status=hit" {
		t.Errorf("expected status=hit, got %q", res)
	}
}

func TestCardHandlerBadRequest(t *testing.T) {
	h := newCardHandler(okRenderer(), nil, 4)
	tests := []string{
		"http://0/",                                   // missing url
		"http://0/?url=not-a-url",                     // relative target
		"http://0/?url=https://example.com&width=0",   // below minimum
		"http://0/?url=https://example.com&width=abc", // non-numeric
		"http://0/?url=https://example.com&height=99999", // above maximum
	}
	for _, target := range tests {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
		if cc := w.Header().Get(NameCacheControl); cc != ValueNoCache {
			t.Errorf("%s: expected %q, got %q", target, ValueNoCache, cc)
		}
	}
}

func TestCardHandlerForbidden(t *testing.T) {
	h := newCardHandler(okRenderer(),
		&policy.Options{BlockedHosts: []string{"blocked.example.com"}}, 4)
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet,
		"http://0/?url=https://blocked.example.com/page", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCardHandlerOverload(t *testing.T) {
	gate := make(chan struct{})
	r := render.RendererFunc(func(context.Context, string, int, int) ([]byte, error) {
		<-gate
		return []byte("png"), nil
	})
	h := newCardHandler(r, nil, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet,
			"http://0/?url=https://a.example.com/", nil))
	}()
	time.Sleep(50 * time.Millisecond)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet,
		"http://0/?url=https://b.example.com/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if ra := w.Header().Get(NameRetryAfter); ra != "5" {
		t.Errorf("expected Retry-After 5, got %q", ra)
	}

	close(gate)
	wg.Wait()
}

func TestCardHandlerRenderFailure(t *testing.T) {
	r := render.RendererFunc(func(context.Context, string, int, int) ([]byte, error) {
		return nil, errors.New("chrome crashed")
	})
	h := newCardHandler(r, nil, 4)
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet,
		"http://0/?url=https://example.com/", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if w.Body.String() != "unable to render preview" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestPingHandler(t *testing.T) {
	w := httptest.NewRecorder()
	PingHandleFunc()(w,
		httptest.NewRequest(http.MethodGet, "http://0/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "pong" {
		t.Errorf("expected pong, got %q", w.Body.String())
	}
}
