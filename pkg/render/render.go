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

// Package render defines the interface to the external page-rendering
// collaborator. Rendering may take seconds and may fail; callers treat it as
// a black box.
package render

import "context"

// Renderer renders the page at the provided URL into an image of the
// requested viewport dimensions. Implementations enforce their own timeout;
// a timeout or navigation failure surfaces as an error.
type Renderer interface {
	Render(ctx context.Context, url string, width, height int) ([]byte, error)
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(ctx context.Context, url string, width, height int) ([]byte, error)

func (f RendererFunc) Render(ctx context.Context, url string,
	width, height int) ([]byte, error) {
	return f(ctx, url, width, height)
}
