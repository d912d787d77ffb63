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

// Package filesystem is the filesystem implementation of the previewd
// durable cache tier. Entry age is taken from the on-disk modification time;
// no separate metadata record is kept.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/cache/filesystem/options"
)

// dataSuffix distinguishes cache blobs from anything else in the cache path
const dataSuffix = ".data"

// Store implements the cache.Store interface
var _ cache.Store = &Store{}

// Store describes a filesystem durable-tier store
type Store struct {
	Name   string
	Config *options.Options
}

// New returns a new filesystem Store
func New(name string, cfg *options.Options) *Store {
	if cfg == nil {
		cfg = options.New()
	}
	return &Store{Name: name, Config: cfg}
}

// Connect verifies the cache path exists and is writeable
func (s *Store) Connect() error {
	return makeDirectory(s.Config.CachePath)
}

func (s *Store) Close() error {
	return nil
}

// Exists reports whether a blob for the key is present on disk
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.getFileName(key))
	return err == nil
}

// Read returns the blob bytes for the key, or ErrKNF when absent
func (s *Store) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.getFileName(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cache.ErrKNF
		}
		return nil, err
	}
	return data, nil
}

// Write stores the blob bytes under the key, replacing any prior content
func (s *Store) Write(key string, data []byte) error {
	if key == "" {
		return errors.New("cacheKey required")
	}
	return os.WriteFile(s.getFileName(key), data, 0o644)
}

// Delete removes the blobs for the provided keys. A key already absent is
// not an error, so racing the sweeper resolves quietly.
func (s *Store) Delete(keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(s.getFileName(key)); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// List enumerates all blobs with their sizes and modification times
func (s *Store) List() ([]cache.EntryInfo, error) {
	dirents, err := os.ReadDir(s.Config.CachePath)
	if err != nil {
		return nil, err
	}
	entries := make([]cache.EntryInfo, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), dataSuffix) {
			continue
		}
		fi, err := d.Info()
		if err != nil {
			// deleted between ReadDir and Info; an accepted race
			continue
		}
		entries = append(entries, cache.EntryInfo{
			Key:          strings.TrimSuffix(d.Name(), dataSuffix),
			Size:         fi.Size(),
			LastModified: fi.ModTime(),
		})
	}
	return entries, nil
}

func (s *Store) getFileName(key string) string {
	return filepath.Join(
		s.Config.CachePath,
		strings.NewReplacer("/", "~1", "\\", "~2", "..", "~3").Replace(key),
	) + dataSuffix
}

// makeDirectory creates a directory on the filesystem and returns the error in the event of a failure.
func makeDirectory(path string) error {
	err := os.MkdirAll(path, 0o755)
	if err == nil {
		// verify writability by attempting to touch a test file in the cache path
		tf := filepath.Join(path, ".test."+strconv.FormatInt(time.Now().Unix(), 10))
		err = os.WriteFile(tf, []byte(""), 0o600)
		if err == nil {
			os.Remove(tf)
		}
	}
	if err != nil {
		return fmt.Errorf("[%s] directory is not writeable by previewd: %w", path, err)
	}
	return nil
}
