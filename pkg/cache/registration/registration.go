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

// Package registration instantiates the configured durable-tier provider
package registration

import (
	"fmt"

	"github.com/previewcache/previewd/pkg/cache"
	"github.com/previewcache/previewd/pkg/cache/bbolt"
	"github.com/previewcache/previewd/pkg/cache/filesystem"
	"github.com/previewcache/previewd/pkg/cache/options"
)

// NewStore returns an unconnected durable-tier Store for the configured provider
func NewStore(o *options.Options) (cache.Store, error) {
	if o == nil {
		o = options.New()
	}
	switch o.Provider {
	case options.ProviderFilesystem:
		return filesystem.New(o.Name, o.Filesystem), nil
	case options.ProviderBBolt:
		return bbolt.New(o.Name, o.BBolt), nil
	}
	return nil, fmt.Errorf("unknown cache provider: %s", o.Provider)
}
