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

package tiered

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/cache/capacity"
	"github.com/previewcache/previewd/pkg/cache/memory"
	"github.com/previewcache/previewd/pkg/cache/status"
	"github.com/previewcache/previewd/pkg/cache/sweeper"
)

type countingStore struct {
	entries  map[string][]byte
	mtimes   map[string]time.Time
	reads    int
	writes   int
	readErr  error
	writeErr error
}

func newCountingStore() *countingStore {
	return &countingStore{
		entries: make(map[string][]byte),
		mtimes:  make(map[string]time.Time),
	}
}

func (s *countingStore) Connect() error { return nil }
func (s *countingStore) Close() error   { return nil }

func (s *countingStore) Exists(key string) bool {
	_, ok := s.entries[key]
	return ok
}

func (s *countingStore) Read(key string) ([]byte, error) {
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	b, ok := s.entries[key]
	if !ok {
		return nil, cache.ErrKNF
	}
	return b, nil
}

func (s *countingStore) Write(key string, data []byte) error {
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.entries[key] = data
	s.mtimes[key] = time.Now()
	return nil
}

func (s *countingStore) Delete(keys ...string) error {
	for _, k := range keys {
		delete(s.entries, k)
		delete(s.mtimes, k)
	}
	return nil
}

func (s *countingStore) List() ([]cache.EntryInfo, error) {
	out := make([]cache.EntryInfo, 0, len(s.entries))
	for k, v := range s.entries {
		out = append(out, cache.EntryInfo{Key: k, Size: int64(len(v)),
			LastModified: s.mtimes[k]})
	}
	return out, nil
}

func (s *countingStore) totalBytes() int64 {
	var n int64
	for _, v := range s.entries {
		n += int64(len(v))
	}
	return n
}

func newTestCache(store cache.Store, ceiling int64) *Cache {
	mem := memory.New(16, time.Hour)
	gov := capacity.New("test", "fake", store, ceiling)
	sw := sweeper.New("test", "fake", store, 7*24*time.Hour, 24*time.Hour)
	return New("test", "fake", mem, store, gov, sw)
}

func TestStoreAndRetrieve(t *testing.T) {
	s := newCountingStore()
	c := newTestCache(s, 1024)

	data := []byte("preview bytes")
	if err := c.Store("key1", data); err != nil {
		t.Fatal(err)
	}
	b, ls := c.Retrieve("key1")
	if ls != status.LookupStatusHit {
		t.Errorf("expected %s, got %s", status.LookupStatusHit, ls)
	}
	if !bytes.Equal(b, data) {
		t.Errorf("expected %q, got %q", data, b)
	}
	// Store mirrored into memory, so the hit must not touch the durable tier
	if s.reads != 0 {
		t.Errorf("expected 0 durable reads, got %d", s.reads)
	}
}

func TestRetrieveMiss(t *testing.T) {
	s := newCountingStore()
	c := newTestCache(s, 1024)
	b, ls := c.Retrieve("absent")
	if ls != status.LookupStatusKeyMiss {
		t.Errorf("expected %s, got %s", status.LookupStatusKeyMiss, ls)
	}
	if b != nil {
		t.Errorf("expected nil bytes, got %d bytes", len(b))
	}
}

func TestRetrieveBackfill(t *testing.T) {
	s := newCountingStore()
	c := newTestCache(s, 1024)

	data := []byte("durable only")
	// write directly to the durable tier so the memory tier is cold
	if err := s.Write("key1", data); err != nil {
		t.Fatal(err)
	}
	s.reads, s.writes = 0, 0

	b, ls := c.Retrieve("key1")
	if ls != status.LookupStatusHit {
		t.Fatalf("expected %s, got %s", status.LookupStatusHit, ls)
	}
	if !bytes.Equal(b, data) {
		t.Errorf("expected %q, got %q", data, b)
	}
	if s.reads != 1 {
		t.Errorf("expected 1 durable read, got %d", s.reads)
	}

	// second lookup must be served by the back-filled memory tier
	if _, ls = c.Retrieve("key1"); ls != status.LookupStatusHit {
		t.Errorf("expected %s, got %s", status.LookupStatusHit, ls)
	}
	if s.reads != 1 {
		t.Errorf("expected back-fill to avoid a second durable read, got %d", s.reads)
	}
}

func TestRetrieveAbsorbsReadFailure(t *testing.T) {
	s := newCountingStore()
	c := newTestCache(s, 1024)
	if err := s.Write("key1", []byte("x")); err != nil {
		t.Fatal(err)
	}
	s.readErr = errors.New("i/o error")
	b, ls := c.Retrieve("key1")
	if ls != status.LookupStatusKeyMiss {
		t.Errorf("expected %s, got %s", status.LookupStatusKeyMiss, ls)
	}
	if b != nil {
		t.Error("expected nil bytes on a degraded read")
	}
}

func TestStoreCapacityRejection(t *testing.T) {
	s := newCountingStore()
	c := newTestCache(s, 100)

	// fill to the ceiling
	for i := 0; i < 10; i++ {
		if err := c.Store(string(rune('a'+i)), make([]byte, 10)); err != nil {
			t.Fatal(err)
		}
	}
	before := s.totalBytes()

	err := c.Store("overflow", make([]byte, 10))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	// the rejected entry must not reach either tier
	if s.Exists("overflow") {
		t.Error("rejected entry reached the durable tier")
	}
	if _, ls := c.Retrieve("overflow"); ls != status.LookupStatusKeyMiss {
		t.Error("rejected entry reached the in-process tier")
	}
	// rejection triggers a forced sweep, so the aggregate strictly decreases
	if after := s.totalBytes(); after >= before {
		t.Errorf("expected forced sweep to shrink the tier, before=%d after=%d",
			before, after)
	}
	// with headroom restored the retry succeeds
	if err := c.Store("overflow", make([]byte, 10)); err != nil {
		t.Errorf("expected retry to succeed, got %v", err)
	}
}

func TestStoreWriteFailureSkipsMemory(t *testing.T) {
	s := newCountingStore()
	c := newTestCache(s, 1024)
	s.writeErr = errors.New("disk full")
	if err := c.Store("key1", []byte("x")); err == nil {
		t.Error("expected a write error")
	}
	s.writeErr = nil
	if _, ls := c.Retrieve("key1"); ls != status.LookupStatusKeyMiss {
		t.Error("failed durable write must not populate the memory tier")
	}
}
