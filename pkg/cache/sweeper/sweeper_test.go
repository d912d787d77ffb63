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

package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/previewcache/previewd/pkg/cache"
)

type fakeStore struct {
	mtx     sync.Mutex
	entries map[string]cache.EntryInfo
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]cache.EntryInfo)}
}

func (f *fakeStore) add(key string, size int64, lastModified time.Time) {
	f.entries[key] = cache.EntryInfo{Key: key, Size: size, LastModified: lastModified}
}

func (f *fakeStore) Connect() error              { return nil }
func (f *fakeStore) Close() error                { return nil }
func (f *fakeStore) Exists(string) bool          { return false }
func (f *fakeStore) Read(string) ([]byte, error) { return nil, cache.ErrKNF }
func (f *fakeStore) Write(string, []byte) error  { return nil }

func (f *fakeStore) Delete(keys ...string) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
	return nil
}

func (f *fakeStore) List() ([]cache.EntryInfo, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]cache.EntryInfo, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) len() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return len(f.entries)
}

const retention = 7 * 24 * time.Hour

func TestSweepExpired(t *testing.T) {
	fs := newFakeStore()
	now := time.Now()
	fs.add("stale", 10, now.Add(-retention-time.Hour))
	fs.add("fresh", 10, now.Add(-retention+time.Hour))

	s := New("test", "fake", fs, retention, 24*time.Hour)
	s.now = func() time.Time { return now }

	if removed := s.SweepExpired(); removed != 1 {
		t.Errorf("expected 1 removal, got %d", removed)
	}
	if _, ok := fs.entries["stale"]; ok {
		t.Error("expected stale entry to be removed")
	}
	if _, ok := fs.entries["fresh"]; !ok {
		t.Error("expected fresh entry to be retained")
	}

	// idempotent: nothing expired is a no-op
	if removed := s.SweepExpired(); removed != 0 {
		t.Errorf("expected 0 removals, got %d", removed)
	}
}

func TestSweepForcedProgress(t *testing.T) {
	tests := []struct {
		entryCount int
		expected   int
	}{
		{10, 2},
		{11, 3}, // ceil(0.2 * 11)
		{4, 1},
		{1, 1},
		{0, 0},
	}
	for _, tc := range tests {
		fs := newFakeStore()
		now := time.Now()
		for i := 0; i < tc.entryCount; i++ {
			fs.add(string(rune('a'+i)), 10, now.Add(-time.Duration(i)*time.Minute))
		}
		s := New("test", "fake", fs, retention, 24*time.Hour)
		if removed := s.SweepForced(); removed != tc.expected {
			t.Errorf("entryCount=%d: expected %d removals, got %d",
				tc.entryCount, tc.expected, removed)
		}
		if fs.len() != tc.entryCount-tc.expected {
			t.Errorf("entryCount=%d: expected %d remaining, got %d",
				tc.entryCount, tc.entryCount-tc.expected, fs.len())
		}
	}
}

func TestSweepForcedOldestFirst(t *testing.T) {
	fs := newFakeStore()
	now := time.Now()
	fs.add("oldest", 10, now.Add(-72*time.Hour))
	fs.add("older", 10, now.Add(-48*time.Hour))
	fs.add("old", 10, now.Add(-24*time.Hour))
	fs.add("new1", 10, now.Add(-2*time.Hour))
	fs.add("new2", 10, now.Add(-time.Hour))

	s := New("test", "fake", fs, retention, 24*time.Hour)
	if removed := s.SweepForced(); removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, ok := fs.entries["oldest"]; ok {
		t.Error("expected the oldest entry to be removed first")
	}
}

func TestSweepAbsorbsListFailure(t *testing.T) {
	fs := newFakeStore()
	fs.listErr = errors.New("i/o error")
	s := New("test", "fake", fs, retention, 24*time.Hour)
	if removed := s.SweepExpired(); removed != 0 {
		t.Errorf("expected 0, got %d", removed)
	}
	if removed := s.SweepForced(); removed != 0 {
		t.Errorf("expected 0, got %d", removed)
	}
}

func TestStartDisabled(t *testing.T) {
	fs := newFakeStore()
	s := New("test", "fake", fs, retention, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// must not panic or spin with a non-positive interval
	s.Start(ctx)
}
