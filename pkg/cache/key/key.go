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

// Package key derives cache keys for rendered preview images
package key

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Derive calculates the cache key for the provided normalized target URL and
// viewport dimensions. The key is the SHA-256 hex digest of
// "url-width-height": deterministic across restarts, fixed-length, and safe
// for direct use as a durable-tier file name. A digest collision would serve
// the wrong image silently; at SHA-256 collision probability this is an
// accepted risk for a cache, not an integrity mechanism.
func Derive(url string, width, height int) string {
	h := sha256.Sum256([]byte(url + "-" + strconv.Itoa(width) + "-" + strconv.Itoa(height)))
	return hex.EncodeToString(h[:])
}
