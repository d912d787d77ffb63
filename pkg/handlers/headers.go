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

package handlers

const (
	// NameCacheControl is the Cache-Control response header name
	NameCacheControl = "Cache-Control"
	// NameContentType is the Content-Type response header name
	NameContentType = "Content-Type"
	// NameRetryAfter is the Retry-After response header name
	NameRetryAfter = "Retry-After"
	// NameServer is the Server response header name
	NameServer = "Server"
	// NamePreviewdResult conveys the cache lookup status to the caller
	NamePreviewdResult = "X-Previewd-Result"

	// ValueNoCache marks uncacheable responses
	ValueNoCache = "no-store, no-cache"
	// ValuePublicFresh is the freshness directive for served previews
	ValuePublicFresh = "public, max-age=3600"
	// ValueTextPlain is the plain-text content type
	ValueTextPlain = "text/plain; charset=utf-8"
	// ValueImagePNG is the rendered preview content type
	ValueImagePNG = "image/png"
)
