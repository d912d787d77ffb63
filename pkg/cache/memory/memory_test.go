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

package memory

import (
	"bytes"
	"strconv"
	"testing"
	"time"
)

func TestStoreRetrieve(t *testing.T) {
	c := New(16, time.Hour)
	c.Store("k", []byte("data"))
	b, ok := c.Retrieve("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if !bytes.Equal(b, []byte("data")) {
		t.Errorf("expected data, got %s", string(b))
	}
	if _, ok := c.Retrieve("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestRetrieveExpired(t *testing.T) {
	c := New(16, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Store("k", []byte("data"))

	// entries do not have their age reset on read
	c.now = func() time.Time { return now.Add(30 * time.Minute) }
	if _, ok := c.Retrieve("k"); !ok {
		t.Error("expected hit before expiry")
	}

	c.now = func() time.Time { return now.Add(time.Hour + time.Second) }
	if _, ok := c.Retrieve("k"); ok {
		t.Error("expected miss after expiry")
	}
	// expired entry is removed lazily on access
	if c.Len() != 0 {
		t.Errorf("expected 0 entries, got %d", c.Len())
	}
}

func TestStoreBounded(t *testing.T) {
	c := New(4, time.Hour)
	for i := 0; i < 8; i++ {
		c.Store("k"+strconv.Itoa(i), []byte("data"))
	}
	if c.Len() > 4 {
		t.Errorf("expected at most 4 entries, got %d", c.Len())
	}
	// the most recent write is always retained
	if _, ok := c.Retrieve("k7"); !ok {
		t.Error("expected hit for most recent entry")
	}
}

func TestStoreBoundedPurgesExpiredFirst(t *testing.T) {
	c := New(2, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Store("old", []byte("data"))

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	c.Store("a", []byte("data"))
	c.Store("b", []byte("data"))
	if _, ok := c.Retrieve("a"); !ok {
		t.Error("expected expired entry to be purged ahead of a live one")
	}
	if _, ok := c.Retrieve("b"); !ok {
		t.Error("expected hit for b")
	}
}

func TestRemove(t *testing.T) {
	c := New(16, time.Hour)
	c.Store("a", []byte("1"))
	c.Store("b", []byte("2"))
	c.Remove("a", "b")
	if c.Len() != 0 {
		t.Errorf("expected 0 entries, got %d", c.Len())
	}
}

func TestNewDefaults(t *testing.T) {
	c := New(0, 0)
	if c.maxEntries != DefaultMaxEntries {
		t.Errorf("expected %d, got %d", DefaultMaxEntries, c.maxEntries)
	}
	if c.ttl != DefaultTTL {
		t.Errorf("expected %s, got %s", DefaultTTL, c.ttl)
	}
}
