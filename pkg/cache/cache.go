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

// Package cache defines the previewd durable-tier cache interfaces
package cache

import (
	"errors"
	"time"
)

// ErrKNF represents the error "key not found in cache"
var ErrKNF = errors.New("key not found in cache")

// EntryInfo describes one blob in a durable-tier Store
type EntryInfo struct {
	// Key is the cache key the blob is stored under
	Key string
	// Size is the size of the blob in bytes
	Size int64
	// LastModified is the time the blob was last written, used for
	// age-based eviction ranking
	LastModified time.Time
}

// Store is the interface for durable blob-tier providers.
// Read must return ErrKNF (possibly wrapped) on a key miss.
type Store interface {
	Connect() error
	Exists(key string) bool
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(keys ...string) error
	List() ([]EntryInfo, error)
	Close() error
}
