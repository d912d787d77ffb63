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

package options

import (
	"fmt"
	"time"

	bbolt "github.com/previewcache/previewd/pkg/cache/bbolt/options"
	filesystem "github.com/previewcache/previewd/pkg/cache/filesystem/options"
)

const (
	// ProviderFilesystem selects the filesystem durable tier
	ProviderFilesystem = "filesystem"
	// ProviderBBolt selects the bbolt durable tier
	ProviderBBolt = "bbolt"

	// DefaultProvider is the default durable-tier provider
	DefaultProvider = ProviderFilesystem
	// DefaultMaxSizeMB is the default durable-tier byte ceiling in megabytes
	DefaultMaxSizeMB = int64(512)
	// DefaultMemoryTTL is the in-process tier's per-entry time-to-live
	DefaultMemoryTTL = time.Hour
	// DefaultMemoryMaxEntries bounds the in-process tier's entry count
	DefaultMemoryMaxEntries = 1024
	// DefaultRetention is the durable tier's age-based retention window
	DefaultRetention = 7 * 24 * time.Hour
	// DefaultSweepInterval is how often the expiry sweep runs
	DefaultSweepInterval = 24 * time.Hour
)

// Options is a collection defining the previewd caching behavior
type Options struct {
	// Name is the name of the cache, used in logs and metrics
	Name string `yaml:"-"`
	// Provider is the durable-tier type: "filesystem" or "bbolt"
	Provider string `yaml:"provider,omitempty"`
	// Filesystem provides options for the filesystem durable tier
	Filesystem *filesystem.Options `yaml:"filesystem,omitempty"`
	// BBolt provides options for the bbolt durable tier
	BBolt *bbolt.Options `yaml:"bbolt,omitempty"`
	// MaxSizeMB is the durable-tier aggregate size ceiling in megabytes
	MaxSizeMB int64 `yaml:"max_size_mb,omitempty"`
	// MemoryTTL is the in-process tier's per-entry time-to-live
	MemoryTTL time.Duration `yaml:"memory_ttl,omitempty"`
	// MemoryMaxEntries bounds the in-process tier's entry count
	MemoryMaxEntries int `yaml:"memory_max_entries,omitempty"`
	// Retention is the durable-tier age-based retention window
	Retention time.Duration `yaml:"retention,omitempty"`
	// SweepInterval is how often the expiry sweep runs
	SweepInterval time.Duration `yaml:"sweep_interval,omitempty"`
}

// New will return a pointer to an Options with the default configuration settings
func New() *Options {
	return &Options{
		Provider:         DefaultProvider,
		Filesystem:       filesystem.New(),
		BBolt:            bbolt.New(),
		MaxSizeMB:        DefaultMaxSizeMB,
		MemoryTTL:        DefaultMemoryTTL,
		MemoryMaxEntries: DefaultMemoryMaxEntries,
		Retention:        DefaultRetention,
		SweepInterval:    DefaultSweepInterval,
	}
}

// MaxSizeBytes returns the durable-tier ceiling in bytes
func (o *Options) MaxSizeBytes() int64 {
	return o.MaxSizeMB * 1024 * 1024
}

// Validate returns an error if the Options are unusable
func (o *Options) Validate() error {
	switch o.Provider {
	case ProviderFilesystem, ProviderBBolt:
	default:
		return fmt.Errorf("unknown cache provider: %s", o.Provider)
	}
	if o.MaxSizeMB < 1 {
		return fmt.Errorf("invalid max_size_mb: %d", o.MaxSizeMB)
	}
	if o.MemoryTTL < 1 || o.Retention < 1 || o.SweepInterval < 1 {
		return fmt.Errorf("cache lifecycle durations must be positive")
	}
	return nil
}

// UnmarshalYAML applies defaults before overlaying YAML-parsed values
func (o *Options) UnmarshalYAML(unmarshal func(any) error) error {
	type loadOptions Options
	lo := loadOptions(*(New()))
	if err := unmarshal(&lo); err != nil {
		return err
	}
	*o = Options(lo)
	return nil
}
