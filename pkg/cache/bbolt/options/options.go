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

const (
	// DefaultFilename is the default bbolt database file path
	DefaultFilename = "previewd.db"
	// DefaultBucket is the default bbolt bucket name
	DefaultBucket = "previewd"
)

// Options is a collection of BBolt Cache configurations
type Options struct {
	// Filename represents the filename (with path) of the BBolt database
	Filename string `yaml:"filename,omitempty"`
	// Bucket represents the name of the bucket within BBolt holding the cache blobs
	Bucket string `yaml:"bucket,omitempty"`
}

// New returns a new Options reference with default values set
func New() *Options {
	return &Options{
		Filename: DefaultFilename,
		Bucket:   DefaultBucket,
	}
}

// Equal returns true if all members of the subject and provided Options are identical
func (o *Options) Equal(o2 *Options) bool {
	if o2 == nil {
		return false
	}
	return o.Filename == o2.Filename && o.Bucket == o2.Bucket
}
