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

// Package bbolt is the bbolt implementation of the previewd durable cache
// tier. bbolt records no modification times, so each value carries an 8-byte
// big-endian unix-nano write-time header ahead of the blob payload; the
// sweeper's age ranking reads it back through List.
package bbolt

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/cache/bbolt/options"
	"go.etcd.io/bbolt"
)

// header length for the write-time prefix
const headerLen = 8

// Store implements the cache.Store interface
var _ cache.Store = &Store{}

// Store describes a bbolt durable-tier store
type Store struct {
	Name   string
	Config *options.Options
	dbh    *bbolt.DB
	now    func() time.Time
}

// New returns a new bbolt Store
func New(name string, cfg *options.Options) *Store {
	if cfg == nil {
		cfg = options.New()
	}
	return &Store{Name: name, Config: cfg, now: time.Now}
}

// Connect opens the configured bbolt database and ensures the bucket exists
func (s *Store) Connect() error {
	var err error
	s.dbh, err = bbolt.Open(s.Config.Filename, 0o644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return err
	}
	return s.dbh.Update(func(tx *bbolt.Tx) error {
		_, err2 := tx.CreateBucketIfNotExists([]byte(s.Config.Bucket))
		if err2 != nil {
			return fmt.Errorf("create bucket: %w", err2)
		}
		return nil
	})
}

func (s *Store) Close() error {
	if s.dbh == nil {
		return nil
	}
	return s.dbh.Close()
}

// Exists reports whether a blob for the key is present in the bucket
func (s *Store) Exists(key string) bool {
	var found bool
	s.dbh.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(s.Config.Bucket)).Get([]byte(key)) != nil
		return nil
	})
	return found
}

// Read returns the blob bytes for the key, or ErrKNF when absent
func (s *Store) Read(key string) ([]byte, error) {
	var data []byte
	err := s.dbh.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(s.Config.Bucket)).Get([]byte(key))
		if v == nil {
			return cache.ErrKNF
		}
		// bbolt value slices are only valid inside the transaction
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(data) < headerLen {
		return nil, fmt.Errorf("short cache record for key %s", key)
	}
	return data[headerLen:], nil
}

// Write stores the blob under the key with a fresh write-time header
func (s *Store) Write(key string, data []byte) error {
	v := make([]byte, headerLen+len(data))
	binary.BigEndian.PutUint64(v, uint64(s.now().UnixNano()))
	copy(v[headerLen:], data)
	return s.dbh.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(s.Config.Bucket)).Put([]byte(key), v)
	})
}

// Delete removes the blobs for the provided keys; absent keys are a no-op
func (s *Store) Delete(keys ...string) error {
	return s.dbh.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(s.Config.Bucket))
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// List enumerates all blobs with their payload sizes and write times
func (s *Store) List() ([]cache.EntryInfo, error) {
	var entries []cache.EntryInfo
	err := s.dbh.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(s.Config.Bucket)).ForEach(func(k, v []byte) error {
			if len(v) < headerLen {
				return nil
			}
			entries = append(entries, cache.EntryInfo{
				Key:          string(k),
				Size:         int64(len(v) - headerLen),
				LastModified: time.Unix(0, int64(binary.BigEndian.Uint64(v))),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
